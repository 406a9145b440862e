package services

import (
	"context"
	"fmt"
	"log"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Action URL templates embedded in notifications.
func tenderURL(id bson.ObjectID) string    { return "/tenders/" + id.Hex() }
func contractURL(id bson.ObjectID) string  { return "/tenders/" + id.Hex() + "/contract" }
func complaintURL(id bson.ObjectID) string { return "/complaints/" + id.Hex() }

// dispatch is the shared tail of every event adapter. Dispatch failures are
// logged and swallowed: a notification must never block or roll back the
// domain operation that triggered it.
func (s *NotificationService) dispatch(
	ctx context.Context,
	recipientID bson.ObjectID,
	typ models.NotificationType,
	title, message string,
	metadata models.NotificationMetadata,
	actionURL string,
) {
	if _, _, err := s.Create(ctx, recipientID, typ, title, message, metadata, actionURL, false); err != nil {
		log.Printf("notification dispatch failed: type=%s recipient=%s: %v", typ, recipientID.Hex(), err)
	}
}

func (s *NotificationService) NotifyTenderInvitation(ctx context.Context, supplierID bson.ObjectID, tender *models.Tender) {
	s.dispatch(ctx, supplierID,
		models.NotificationTenderInvitation,
		"Invitation to tender",
		fmt.Sprintf("You have been invited to submit a bid for %q.", tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title},
		tenderURL(tender.ID))
}

func (s *NotificationService) NotifyNewBid(ctx context.Context, tender *models.Tender, bid *models.Bid) {
	s.dispatch(ctx, tender.CreatedBy,
		models.NotificationNewBid,
		"New bid received",
		fmt.Sprintf("%s submitted a bid on %q.", bid.CompanyName, tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title, BidID: &bid.ID, CompanyName: bid.CompanyName},
		tenderURL(tender.ID))
}

// NotifyBidAwarded tells the winning supplier their bid was accepted. The
// source system reuses the new_bid type here, so the write is gated by the
// same bidNotifications preference.
func (s *NotificationService) NotifyBidAwarded(ctx context.Context, tender *models.Tender, bid *models.Bid) {
	s.dispatch(ctx, bid.SupplierID,
		models.NotificationNewBid,
		"Your bid was awarded",
		fmt.Sprintf("Your bid on %q has been awarded. The contract can be generated once the standstill period ends.", tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title, BidID: &bid.ID},
		tenderURL(tender.ID))
}

func (s *NotificationService) NotifyDeadlineReminder(ctx context.Context, recipientID bson.ObjectID, tender *models.Tender) {
	s.dispatch(ctx, recipientID,
		models.NotificationTenderDeadlineReminder,
		"Tender deadline approaching",
		fmt.Sprintf("The deadline for %q is %s.", tender.Title, tender.Deadline.Format("2006-01-02 15:04")),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title},
		tenderURL(tender.ID))
}

func (s *NotificationService) NotifyQuestionAsked(ctx context.Context, tender *models.Tender, q *models.Question) {
	s.dispatch(ctx, tender.CreatedBy,
		models.NotificationQuestionAsked,
		"New question on your tender",
		fmt.Sprintf("%s asked a question on %q.", q.AskedByCompany, tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title, QuestionID: &q.ID, CompanyName: q.AskedByCompany},
		tenderURL(tender.ID))
}

func (s *NotificationService) NotifyQuestionAnswered(ctx context.Context, tender *models.Tender, q *models.Question) {
	s.dispatch(ctx, q.AskedBy,
		models.NotificationQuestionAnswered,
		"Your question was answered",
		fmt.Sprintf("Your question on %q has been answered.", tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title, QuestionID: &q.ID},
		tenderURL(tender.ID))
}

func (s *NotificationService) NotifyContractGenerated(ctx context.Context, contract *models.Contract) {
	meta := models.NotificationMetadata{TenderID: &contract.TenderID, ContractID: &contract.ID}
	msg := "A contract draft has been generated from the awarded bid."
	s.dispatch(ctx, contract.Customer.UserID, models.NotificationContractUpdated,
		"Contract generated", msg, meta, contractURL(contract.TenderID))
	s.dispatch(ctx, contract.Supplier.UserID, models.NotificationContractUpdated,
		"Contract generated", msg, meta, contractURL(contract.TenderID))
}

func (s *NotificationService) NotifyContractAmended(ctx context.Context, contract *models.Contract, authorID bson.ObjectID) {
	meta := models.NotificationMetadata{TenderID: &contract.TenderID, ContractID: &contract.ID}
	msg := fmt.Sprintf("The contract was updated to version %d.", contract.Version)
	for _, recipient := range []bson.ObjectID{contract.Customer.UserID, contract.Supplier.UserID} {
		if recipient == authorID {
			continue
		}
		s.dispatch(ctx, recipient, models.NotificationContractUpdated,
			"Contract updated", msg, meta, contractURL(contract.TenderID))
	}
}

func (s *NotificationService) NotifyContractSigned(ctx context.Context, contract *models.Contract, signerID bson.ObjectID) {
	meta := models.NotificationMetadata{TenderID: &contract.TenderID, ContractID: &contract.ID}
	for _, recipient := range []bson.ObjectID{contract.Customer.UserID, contract.Supplier.UserID} {
		if recipient == signerID {
			continue
		}
		s.dispatch(ctx, recipient, models.NotificationContractSigned,
			"Contract signed", "The contract has been signed by the counterparty.", meta, contractURL(contract.TenderID))
	}
}

func (s *NotificationService) NotifyComplaintSubmitted(ctx context.Context, tender *models.Tender, complaint *models.Complaint) {
	s.dispatch(ctx, tender.CreatedBy,
		models.NotificationComplaintSubmitted,
		"Award complaint submitted",
		fmt.Sprintf("%s submitted a complaint against the award of %q.", complaint.CompanyName, tender.Title),
		models.NotificationMetadata{TenderID: &tender.ID, TenderTitle: tender.Title, ComplaintID: &complaint.ID, CompanyName: complaint.CompanyName},
		complaintURL(complaint.ID))
}

func (s *NotificationService) NotifyComplaintStatusUpdate(ctx context.Context, complaint *models.Complaint) {
	s.dispatch(ctx, complaint.ComplainantID,
		models.NotificationComplaintStatusUpdate,
		"Complaint status updated",
		fmt.Sprintf("Your complaint is now %s.", complaint.Status),
		models.NotificationMetadata{TenderID: &complaint.TenderID, ComplaintID: &complaint.ID},
		complaintURL(complaint.ID))
}
