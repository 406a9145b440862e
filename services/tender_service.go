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

// TenderService owns the tender status state machine:
//
//	draft -> open -> closed -> open (single permitted reopen)
//	        open -> awarded (terminal)
//
// Awarding starts the standstill period; nothing here generates contracts,
// that is ContractService's job once the gate clears.
//
// There is no optimistic-concurrency guard: two senders awarding the same
// tender concurrently race and the last write wins.
type TenderService struct {
	store      store.Store
	notifier   *NotificationService
	standstill time.Duration
}

func NewTenderService(s store.Store, n *NotificationService, standstill time.Duration) *TenderService {
	return &TenderService{store: s, notifier: n, standstill: standstill}
}

func (s *TenderService) load(ctx context.Context, id bson.ObjectID) (*models.Tender, error) {
	t, err := s.store.GetTender(ctx, id)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	return t, nil
}

func (s *TenderService) save(ctx context.Context, t *models.Tender) error {
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.ReplaceTender(ctx, t); err != nil {
		return storeErr("save tender", err)
	}
	return nil
}

func (s *TenderService) Create(ctx context.Context, sess models.SessionContext, title, description string, standard models.ContractStandard, deadline time.Time, projectID *bson.ObjectID) (*models.Tender, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Invalid("title is required")
	}
	if standard == "" {
		standard = models.ContractStandardCustom
	}
	if !models.ValidContractStandard(standard) {
		return nil, apperrors.Invalid("invalid contract standard %q", standard)
	}

	now := time.Now().UTC()
	t := &models.Tender{
		Title:            title,
		Description:      strings.TrimSpace(description),
		Status:           models.TenderStatusDraft,
		CreatedBy:        sess.EffectiveID(),
		ProjectID:        projectID,
		ContractStandard: standard,
		Deadline:         deadline,
		InvitedSuppliers: []models.InvitedSupplier{},
		Bids:             []models.Bid{},
		Questions:        []models.Question{},
		Documents:        []models.TenderDocument{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateTender(ctx, t); err != nil {
		return nil, storeErr("create tender", err)
	}
	return t, nil
}

func (s *TenderService) Get(ctx context.Context, id bson.ObjectID) (*models.Tender, error) {
	return s.load(ctx, id)
}

func (s *TenderService) ListForUser(ctx context.Context, sess models.SessionContext) ([]models.Tender, error) {
	var (
		items []models.Tender
		err   error
	)
	if sess.ActorRole == models.RoleSupplier {
		items, err = s.store.ListTendersForSupplier(ctx, sess.EffectiveID())
	} else {
		items, err = s.store.ListTendersForOwner(ctx, sess.EffectiveID())
	}
	if err != nil {
		return nil, storeErr("list tenders", err)
	}
	return items, nil
}

// transition moves the tender from exactly one status to another, persists it
// and reloads the stored document so callers always see the state the store
// accepted.
func (s *TenderService) transition(ctx context.Context, sess models.SessionContext, id bson.ObjectID, from, to models.TenderStatus, action string) (*models.Tender, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may " + action)
	}
	if t.Status != from {
		return nil, apperrors.Invalid("cannot %s a tender in status %s", action, t.Status)
	}
	t.Status = to
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *TenderService) Publish(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Tender, error) {
	return s.transition(ctx, sess, id, models.TenderStatusDraft, models.TenderStatusOpen, "publish")
}

func (s *TenderService) Close(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Tender, error) {
	return s.transition(ctx, sess, id, models.TenderStatusOpen, models.TenderStatusClosed, "close")
}

// Reopen is the single permitted backwards transition.
func (s *TenderService) Reopen(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Tender, error) {
	return s.transition(ctx, sess, id, models.TenderStatusClosed, models.TenderStatusOpen, "reopen")
}

// Award moves an open tender to awarded, pins the winning bid and starts the
// standstill clock. The winning supplier is notified; a dispatch failure does
// not undo the award.
func (s *TenderService) Award(ctx context.Context, sess models.SessionContext, id, bidID bson.ObjectID) (*models.Tender, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may award")
	}
	if t.Status != models.TenderStatusOpen {
		return nil, apperrors.Invalid("cannot award a tender in status %s", t.Status)
	}
	bid := t.BidByID(bidID)
	if bid == nil {
		return nil, apperrors.Invalid("bid %s is not a bid on this tender", bidID.Hex())
	}

	now := time.Now().UTC()
	end := now.Add(s.standstill)
	t.Status = models.TenderStatusAwarded
	t.AwardedBidID = &bidID
	t.StandstillEndDate = &end
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}

	fresh, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// notify with the bid validated above; the reloaded document may have
	// been replaced by a concurrent writer in the meantime
	s.notifier.NotifyBidAwarded(ctx, fresh, bid)
	return fresh, nil
}

func (s *TenderService) Delete(ctx context.Context, sess models.SessionContext, id bson.ObjectID) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return apperrors.Forbidden("only the tender owner may delete")
	}
	if err := s.store.DeleteTender(ctx, id); err != nil {
		return storeErr("delete tender", err)
	}
	return nil
}

// SubmitBid appends a supplier's bid to an open tender. One bid per supplier
// per tender; the company snapshot is taken from the supplier's user record
// at submission time.
func (s *TenderService) SubmitBid(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID, price float64, priceStructure string) (*models.Bid, error) {
	t, err := s.load(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TenderStatusOpen {
		return nil, apperrors.Invalid("cannot bid on a tender in status %s", t.Status)
	}
	supplierID := sess.EffectiveID()
	if t.HasBidFrom(supplierID) {
		return nil, apperrors.Invalid("supplier already submitted a bid on this tender")
	}
	supplier, err := s.store.GetUser(ctx, supplierID)
	if err != nil {
		return nil, storeErr("load supplier", err)
	}
	if priceStructure == "" {
		priceStructure = "FIXED_PRICE"
	}

	bid := models.Bid{
		ID:             bson.NewObjectID(),
		TenderID:       t.ID,
		SupplierID:     supplierID,
		CompanyID:      supplier.CompanyID,
		CompanyName:    supplier.CompanyName,
		Price:          price,
		PriceStructure: priceStructure,
		SubmittedAt:    time.Now().UTC(),
	}
	t.Bids = append(t.Bids, bid)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.notifier.NotifyNewBid(ctx, t, &bid)
	return &bid, nil
}

func (s *TenderService) InviteSupplier(ctx context.Context, sess models.SessionContext, tenderID, supplierID bson.ObjectID, email string) (*models.Tender, error) {
	t, err := s.load(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may invite suppliers")
	}
	if t.Status != models.TenderStatusDraft && t.Status != models.TenderStatusOpen {
		return nil, apperrors.Invalid("cannot invite suppliers to a tender in status %s", t.Status)
	}
	for _, inv := range t.InvitedSuppliers {
		if inv.SupplierID == supplierID {
			return nil, apperrors.Invalid("supplier already invited")
		}
	}
	t.InvitedSuppliers = append(t.InvitedSuppliers, models.InvitedSupplier{
		SupplierID: supplierID,
		Email:      strings.TrimSpace(email),
		Status:     models.InvitationStatusPending,
		InvitedAt:  time.Now().UTC(),
	})
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	s.notifier.NotifyTenderInvitation(ctx, supplierID, t)
	return s.load(ctx, tenderID)
}

// AttachDocument records uploaded document metadata on the tender. The actual
// object upload happens in the controller against the storage backend; this
// only mutates tender state, which is frozen once awarded.
func (s *TenderService) AttachDocument(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID, doc models.TenderDocument) (*models.Tender, error) {
	t, err := s.load(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may attach documents")
	}
	if t.Status == models.TenderStatusAwarded {
		return nil, apperrors.Invalid("an awarded tender is immutable")
	}
	if doc.ID.IsZero() {
		doc.ID = bson.NewObjectID()
	}
	doc.UploadedBy = sess.EffectiveID()
	doc.UploadedAt = time.Now().UTC()
	t.Documents = append(t.Documents, doc)
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return s.load(ctx, tenderID)
}

// DetachDocument removes the document metadata and returns it so the caller
// can delete the stored object.
func (s *TenderService) DetachDocument(ctx context.Context, sess models.SessionContext, tenderID, docID bson.ObjectID) (*models.TenderDocument, error) {
	t, err := s.load(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may detach documents")
	}
	if t.Status == models.TenderStatusAwarded {
		return nil, apperrors.Invalid("an awarded tender is immutable")
	}
	for i := range t.Documents {
		if t.Documents[i].ID == docID {
			removed := t.Documents[i]
			t.Documents = append(t.Documents[:i], t.Documents[i+1:]...)
			if err := s.save(ctx, t); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, apperrors.NotFound("document")
}

// SendDeadlineReminders notifies invited suppliers and bidders of every open
// tender whose deadline falls within the window and which has not been
// reminded yet. Returns the number of tenders processed.
func (s *TenderService) SendDeadlineReminders(ctx context.Context, window time.Duration) (int, error) {
	now := time.Now().UTC()
	due, err := s.store.ListOpenTendersWithDeadlineBefore(ctx, now.Add(window))
	if err != nil {
		return 0, storeErr("list tenders due for reminder", err)
	}
	processed := 0
	for i := range due {
		t := due[i]
		seen := map[bson.ObjectID]bool{}
		for _, inv := range t.InvitedSuppliers {
			if !seen[inv.SupplierID] {
				seen[inv.SupplierID] = true
				s.notifier.NotifyDeadlineReminder(ctx, inv.SupplierID, &t)
			}
		}
		for _, bid := range t.Bids {
			if !seen[bid.SupplierID] {
				seen[bid.SupplierID] = true
				s.notifier.NotifyDeadlineReminder(ctx, bid.SupplierID, &t)
			}
		}
		t.DeadlineReminderSentAt = &now
		if err := s.save(ctx, &t); err != nil {
			// reminder marker lost, the tender will be retried next tick
			continue
		}
		processed++
	}
	return processed, nil
}
