package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ComplaintStatus string

const (
	ComplaintStatusSubmitted   ComplaintStatus = "SUBMITTED"
	ComplaintStatusUnderReview ComplaintStatus = "UNDER_REVIEW"
	ComplaintStatusUpheld      ComplaintStatus = "UPHELD"
	ComplaintStatusRejected    ComplaintStatus = "REJECTED"
)

func ValidComplaintStatus(s ComplaintStatus) bool {
	switch s {
	case ComplaintStatusSubmitted, ComplaintStatusUnderReview, ComplaintStatusUpheld, ComplaintStatusRejected:
		return true
	default:
		return false
	}
}

// Complaint is a challenge of an award decision, raised by a supplier while
// the standstill period is running.
type Complaint struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	TenderID bson.ObjectID `bson:"tenderId"      json:"tenderId"`

	ComplainantID bson.ObjectID `bson:"complainantId" json:"complainantId"`
	CompanyName   string        `bson:"companyName"   json:"companyName"`
	Text          string        `bson:"text"          json:"text"`

	Status     ComplaintStatus `bson:"status"               json:"status"`
	ResolvedAt *time.Time      `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
