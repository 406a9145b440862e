package services

import (
	"context"
	"strings"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ComplaintService handles award challenges. A complaint can only be raised
// while the standstill period of an awarded tender is still running, which is
// the whole point of the standstill.
type ComplaintService struct {
	store    store.Store
	notifier *NotificationService
}

func NewComplaintService(s store.Store, n *NotificationService) *ComplaintService {
	return &ComplaintService{store: s, notifier: n}
}

func (s *ComplaintService) Submit(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID, text string) (*models.Complaint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Invalid("complaint text is required")
	}
	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if t.Status != models.TenderStatusAwarded || t.StandstillEndDate == nil {
		return nil, apperrors.Invalid("complaints can only target an awarded tender")
	}
	now := time.Now().UTC()
	if IsStandstillEnded(now, *t.StandstillEndDate) {
		return nil, apperrors.Invalid("the standstill period has ended")
	}

	complainantID := sess.EffectiveID()
	company := ""
	if u, err := s.store.GetUser(ctx, complainantID); err == nil {
		company = u.CompanyName
	}

	c := &models.Complaint{
		TenderID:      t.ID,
		ComplainantID: complainantID,
		CompanyName:   company,
		Text:          text,
		Status:        models.ComplaintStatusSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateComplaint(ctx, c); err != nil {
		return nil, storeErr("create complaint", err)
	}
	s.notifier.NotifyComplaintSubmitted(ctx, t, c)
	return c, nil
}

// Get is readable by the complainant, the tender owner and admins only.
func (s *ComplaintService) Get(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Complaint, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeErr("load complaint", err)
	}
	if !sess.CanActOn(c.ComplainantID) {
		t, err := s.store.GetTender(ctx, c.TenderID)
		if err != nil {
			return nil, storeErr("load tender", err)
		}
		if !sess.CanActOn(t.CreatedBy) {
			return nil, apperrors.Forbidden("not a party to this complaint")
		}
	}
	return c, nil
}

func (s *ComplaintService) ListForTender(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID) ([]models.Complaint, error) {
	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may list complaints")
	}
	items, err := s.store.ListComplaintsForTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("list complaints", err)
	}
	return items, nil
}

// UpdateStatus lets the tender owner or an admin move the complaint through
// review. The complainant is notified of every status change.
func (s *ComplaintService) UpdateStatus(ctx context.Context, sess models.SessionContext, id bson.ObjectID, status models.ComplaintStatus) (*models.Complaint, error) {
	if !models.ValidComplaintStatus(status) {
		return nil, apperrors.Invalid("invalid complaint status %q", status)
	}
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeErr("load complaint", err)
	}
	t, err := s.store.GetTender(ctx, c.TenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may resolve complaints")
	}

	now := time.Now().UTC()
	c.Status = status
	c.UpdatedAt = now
	if status == models.ComplaintStatusUpheld || status == models.ComplaintStatusRejected {
		c.ResolvedAt = &now
	}
	if err := s.store.ReplaceComplaint(ctx, c); err != nil {
		return nil, storeErr("update complaint", err)
	}
	s.notifier.NotifyComplaintStatusUpdate(ctx, c)
	return c, nil
}
