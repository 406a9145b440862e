package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type TenderStatus string

const (
	TenderStatusDraft   TenderStatus = "DRAFT"
	TenderStatusOpen    TenderStatus = "OPEN"
	TenderStatusClosed  TenderStatus = "CLOSED"
	TenderStatusAwarded TenderStatus = "AWARDED"
)

type ContractStandard string

const (
	ContractStandardNS8405 ContractStandard = "NS8405"
	ContractStandardNS8406 ContractStandard = "NS8406"
	ContractStandardNS8407 ContractStandard = "NS8407"
	ContractStandardCustom ContractStandard = "CUSTOM"
)

func ValidContractStandard(s ContractStandard) bool {
	switch s {
	case ContractStandardNS8405, ContractStandardNS8406, ContractStandardNS8407, ContractStandardCustom:
		return true
	default:
		return false
	}
}

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusDeclined InvitationStatus = "DECLINED"
)

type InvitedSupplier struct {
	SupplierID bson.ObjectID    `bson:"supplierId" json:"supplierId"`
	Email      string           `bson:"email"      json:"email"`
	Status     InvitationStatus `bson:"status"     json:"status"`
	InvitedAt  time.Time        `bson:"invitedAt"  json:"invitedAt"`
}

type Bid struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	TenderID       bson.ObjectID `bson:"tenderId"      json:"tenderId"`
	SupplierID     bson.ObjectID `bson:"supplierId"    json:"supplierId"`
	CompanyID      string        `bson:"companyId"     json:"companyId"`
	CompanyName    string        `bson:"companyName"   json:"companyName"`
	Price          float64       `bson:"price"         json:"price"`
	PriceStructure string        `bson:"priceStructure" json:"priceStructure"`
	SubmittedAt    time.Time     `bson:"submittedAt"   json:"submittedAt"`
}

type Question struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	TenderID       bson.ObjectID `bson:"tenderId"      json:"tenderId"`
	Text           string        `bson:"text"          json:"text"`
	AskedBy        bson.ObjectID `bson:"askedBy"       json:"askedBy"`
	AskedByCompany string        `bson:"askedByCompany" json:"askedByCompany"`
	Answer         *string       `bson:"answer,omitempty"     json:"answer,omitempty"`
	AnsweredAt     *time.Time    `bson:"answeredAt,omitempty" json:"answeredAt,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt"     json:"createdAt"`
}

// Answered reports whether the question has received its one answer.
func (q *Question) Answered() bool { return q.Answer != nil }

type TenderDocument struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FileName   string        `bson:"fileName"   json:"fileName"`
	ObjectName string        `bson:"objectName" json:"objectName"`
	PublicURL  string        `bson:"publicUrl"  json:"publicUrl"`
	MimeType   string        `bson:"mimeType"   json:"mimeType"`
	SizeBytes  int64         `bson:"sizeBytes"  json:"sizeBytes"`
	UploadedBy bson.ObjectID `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt time.Time     `bson:"uploadedAt" json:"uploadedAt"`
}

// Tender is a procurement request. Bids, questions, invitations and documents
// are embedded sub-documents: they have no lifecycle of their own and live and
// die with the tender.
type Tender struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title"       json:"title"`
	Description string        `bson:"description" json:"description"`
	Status      TenderStatus  `bson:"status"      json:"status"`

	CreatedBy bson.ObjectID  `bson:"createdBy"          json:"createdBy"`
	ProjectID *bson.ObjectID `bson:"projectId,omitempty" json:"projectId,omitempty"`

	ContractStandard ContractStandard `bson:"contractStandard" json:"contractStandard"`
	Deadline         time.Time        `bson:"deadline"         json:"deadline"`

	InvitedSuppliers []InvitedSupplier `bson:"invitedSuppliers" json:"invitedSuppliers"`
	Bids             []Bid             `bson:"bids"             json:"bids"`
	Questions        []Question        `bson:"questions"        json:"questions"`
	Documents        []TenderDocument  `bson:"documents"        json:"documents"`

	// Set together when the tender is awarded, never cleared afterwards.
	AwardedBidID      *bson.ObjectID `bson:"awardedBidId,omitempty"      json:"awardedBidId,omitempty"`
	StandstillEndDate *time.Time     `bson:"standstillEndDate,omitempty" json:"standstillEndDate,omitempty"`

	DeadlineReminderSentAt *time.Time `bson:"deadlineReminderSentAt,omitempty" json:"deadlineReminderSentAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BidByID returns the embedded bid with the given id, or nil.
func (t *Tender) BidByID(id bson.ObjectID) *Bid {
	for i := range t.Bids {
		if t.Bids[i].ID == id {
			return &t.Bids[i]
		}
	}
	return nil
}

// QuestionByID returns the embedded question with the given id, or nil.
func (t *Tender) QuestionByID(id bson.ObjectID) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

// HasBidFrom reports whether the supplier already submitted a bid.
func (t *Tender) HasBidFrom(supplierID bson.ObjectID) bool {
	for i := range t.Bids {
		if t.Bids[i].SupplierID == supplierID {
			return true
		}
	}
	return false
}
