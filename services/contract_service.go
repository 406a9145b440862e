package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ContractService materializes and maintains the contract that follows an
// awarded tender. Generation is gated on the standstill period having ended.
type ContractService struct {
	store    store.Store
	notifier *NotificationService
}

func NewContractService(s store.Store, n *NotificationService) *ContractService {
	return &ContractService{store: s, notifier: n}
}

func (s *ContractService) load(ctx context.Context, id bson.ObjectID) (*models.Contract, error) {
	c, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, storeErr("load contract", err)
	}
	return c, nil
}

func (s *ContractService) isParty(sess models.SessionContext, c *models.Contract) bool {
	id := sess.EffectiveID()
	return sess.IsAdmin || id == c.Customer.UserID || id == c.Supplier.UserID
}

// Generate creates the contract for an awarded tender from its awarded bid.
// Preconditions: tender awarded, awarded bid present, standstill ended, no
// contract yet. The write is a single insert, so a failed generation leaves
// nothing behind.
func (s *ContractService) Generate(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID) (*models.Contract, error) {
	t, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load tender", err)
	}
	if !sess.CanActOn(t.CreatedBy) {
		return nil, apperrors.Forbidden("only the tender owner may generate the contract")
	}
	if t.Status != models.TenderStatusAwarded {
		return nil, apperrors.Invalid("cannot generate a contract for a tender in status %s", t.Status)
	}
	if t.AwardedBidID == nil || t.StandstillEndDate == nil {
		return nil, apperrors.Invalid("tender is awarded but has no awarded bid recorded")
	}
	bid := t.BidByID(*t.AwardedBidID)
	if bid == nil {
		return nil, apperrors.Invalid("awarded bid %s is not among the tender's bids", t.AwardedBidID.Hex())
	}
	if !IsStandstillEnded(time.Now().UTC(), *t.StandstillEndDate) {
		return nil, apperrors.Invalid("standstill period has not ended")
	}

	if _, err := s.store.GetContractByTender(ctx, tenderID); err == nil {
		return nil, apperrors.Invalid("a contract already exists for this tender")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, storeErr("check existing contract", err)
	}

	customer := models.ContractParty{UserID: t.CreatedBy}
	if owner, err := s.store.GetUser(ctx, t.CreatedBy); err == nil {
		customer.CompanyID = owner.CompanyID
		customer.CompanyName = owner.CompanyName
		customer.Email = owner.Email
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, storeErr("load tender owner", err)
	}

	supplier := models.ContractParty{
		UserID:      bid.SupplierID,
		CompanyID:   bid.CompanyID,
		CompanyName: bid.CompanyName,
	}
	if su, err := s.store.GetUser(ctx, bid.SupplierID); err == nil {
		supplier.Email = su.Email
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, storeErr("load supplier", err)
	}

	now := time.Now().UTC()
	c := &models.Contract{
		TenderID:       t.ID,
		Customer:       customer,
		Supplier:       supplier,
		Price:          bid.Price,
		PriceStructure: bid.PriceStructure,
		Standard:       t.ContractStandard,
		Status:         models.ContractStatusDraft,
		Version:        1,
		Changes:        []models.ContractChange{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateContract(ctx, c); err != nil {
		return nil, storeErr("create contract", err)
	}
	s.notifier.NotifyContractGenerated(ctx, c)
	return c, nil
}

func (s *ContractService) Get(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Contract, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParty(sess, c) {
		return nil, apperrors.Forbidden("not a party to this contract")
	}
	return c, nil
}

func (s *ContractService) GetByTender(ctx context.Context, sess models.SessionContext, tenderID bson.ObjectID) (*models.Contract, error) {
	c, err := s.store.GetContractByTender(ctx, tenderID)
	if err != nil {
		return nil, storeErr("load contract", err)
	}
	if !s.isParty(sess, c) {
		return nil, apperrors.Forbidden("not a party to this contract")
	}
	return c, nil
}

// Sign transitions the contract to signed and notifies the counterparty.
func (s *ContractService) Sign(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Contract, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParty(sess, c) {
		return nil, apperrors.Forbidden("not a party to this contract")
	}
	if c.Status == models.ContractStatusSigned {
		return nil, apperrors.Invalid("contract is already signed")
	}

	now := time.Now().UTC()
	signer := sess.EffectiveID()
	c.Status = models.ContractStatusSigned
	c.SignedAt = &now
	c.SignedBy = &signer
	c.UpdatedAt = now
	if err := s.store.ReplaceContract(ctx, c); err != nil {
		return nil, storeErr("sign contract", err)
	}
	s.notifier.NotifyContractSigned(ctx, c, signer)
	return c, nil
}

// AddChange appends exactly one change entry and bumps the version by exactly
// one. Amending a signed contract voids the signature: the contract moves to
// amended and must be signed again.
func (s *ContractService) AddChange(ctx context.Context, sess models.SessionContext, id bson.ObjectID, description string) (*models.Contract, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.Invalid("change description is required")
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParty(sess, c) {
		return nil, apperrors.Forbidden("not a party to this contract")
	}

	now := time.Now().UTC()
	author := sess.EffectiveID()
	c.Changes = append(c.Changes, models.ContractChange{
		ID:          bson.NewObjectID(),
		Description: description,
		AuthorID:    author,
		CreatedAt:   now,
	})
	c.Version++
	if c.Status == models.ContractStatusSigned {
		c.Status = models.ContractStatusAmended
		c.SignedAt = nil
		c.SignedBy = nil
	}
	c.UpdatedAt = now
	if err := s.store.ReplaceContract(ctx, c); err != nil {
		return nil, storeErr("update contract", err)
	}
	s.notifier.NotifyContractAmended(ctx, c, author)
	return c, nil
}
