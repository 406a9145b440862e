package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationType string

const (
	NotificationTenderInvitation       NotificationType = "tender_invitation"
	NotificationNewBid                 NotificationType = "new_bid"
	NotificationTenderDeadlineReminder NotificationType = "tender_deadline_reminder"
	NotificationQuestionAsked          NotificationType = "question_asked"
	NotificationQuestionAnswered       NotificationType = "question_answered"
	NotificationContractUpdated        NotificationType = "contract_updated"
	NotificationContractSigned         NotificationType = "contract_signed"
	NotificationComplaintSubmitted     NotificationType = "complaint_submitted"
	NotificationComplaintStatusUpdate  NotificationType = "complaint_status_update"
)

// Preference keys stored on the user document under notificationPreferences.
const (
	PrefInvitations       = "invitationNotifications"
	PrefBids              = "bidNotifications"
	PrefDeadlineReminders = "deadlineReminderNotifications"
	PrefQuestions         = "questionNotifications"
	PrefContracts         = "contractNotifications"
)

// PreferenceKeyForType maps a notification type to the preference key that
// gates it. Complaint types have no mapping and are always delivered.
var PreferenceKeyForType = map[NotificationType]string{
	NotificationTenderInvitation:       PrefInvitations,
	NotificationNewBid:                 PrefBids,
	NotificationTenderDeadlineReminder: PrefDeadlineReminders,
	NotificationQuestionAsked:          PrefQuestions,
	NotificationQuestionAnswered:       PrefQuestions,
	NotificationContractUpdated:        PrefContracts,
	NotificationContractSigned:         PrefContracts,
}

// NotificationMetadata carries typed references for the event behind a
// notification. Which fields are set depends on the notification type;
// it is deliberately not a free-form map.
type NotificationMetadata struct {
	TenderID    *bson.ObjectID `bson:"tenderId,omitempty"    json:"tenderId,omitempty"`
	TenderTitle string         `bson:"tenderTitle,omitempty" json:"tenderTitle,omitempty"`
	BidID       *bson.ObjectID `bson:"bidId,omitempty"       json:"bidId,omitempty"`
	QuestionID  *bson.ObjectID `bson:"questionId,omitempty"  json:"questionId,omitempty"`
	ContractID  *bson.ObjectID `bson:"contractId,omitempty"  json:"contractId,omitempty"`
	ComplaintID *bson.ObjectID `bson:"complaintId,omitempty" json:"complaintId,omitempty"`
	CompanyName string         `bson:"companyName,omitempty" json:"companyName,omitempty"`
}

type Notification struct {
	ID     bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID bson.ObjectID    `bson:"userId"        json:"userId"`
	Type   NotificationType `bson:"type"          json:"type"`

	Title    string               `bson:"title"    json:"title"`
	Message  string               `bson:"message"  json:"message"`
	Metadata NotificationMetadata `bson:"metadata" json:"metadata"`

	ActionURL string `bson:"actionUrl" json:"actionUrl"`

	// ReadAt is set iff Read is true.
	Read   bool       `bson:"read"             json:"read"`
	ReadAt *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
