package services

import (
	"context"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/stretchr/testify/require"
)

func TestCreateTenderStartsAsDraft(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	owner := e.addUser(t, models.RoleSender, "byggherre")

	tender, err := e.tenders.Create(context.Background(), sessFor(owner), "  Roof renovation  ", "replace the roof", "", time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	require.Equal(t, models.TenderStatusDraft, tender.Status)
	require.Equal(t, "Roof renovation", tender.Title)
	require.Equal(t, models.ContractStandardCustom, tender.ContractStandard, "empty standard defaults to CUSTOM")
	require.Equal(t, owner.ID, tender.CreatedBy)
	require.Nil(t, tender.AwardedBidID)
	require.Nil(t, tender.StandstillEndDate)
}

func TestCreateTenderValidation(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	owner := e.addUser(t, models.RoleSender, "byggherre")

	_, err := e.tenders.Create(context.Background(), sessFor(owner), "   ", "", "", time.Now(), nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	_, err = e.tenders.Create(context.Background(), sessFor(owner), "ok", "", "NS9999", time.Now(), nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestStatusTransitions(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	sess := sessFor(owner)

	tender, err := e.tenders.Create(ctx, sess, "Tender", "", models.ContractStandardNS8406, time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	// draft can only be published
	_, err = e.tenders.Close(ctx, sess, tender.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
	_, err = e.tenders.Reopen(ctx, sess, tender.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	tender, err = e.tenders.Publish(ctx, sess, tender.ID)
	require.NoError(t, err)
	require.Equal(t, models.TenderStatusOpen, tender.Status)

	// publishing twice is rejected
	_, err = e.tenders.Publish(ctx, sess, tender.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	tender, err = e.tenders.Close(ctx, sess, tender.ID)
	require.NoError(t, err)
	require.Equal(t, models.TenderStatusClosed, tender.Status)

	// closed tenders may go back to open
	tender, err = e.tenders.Reopen(ctx, sess, tender.ID)
	require.NoError(t, err)
	require.Equal(t, models.TenderStatusOpen, tender.Status)
}

func TestTransitionsRequireOwnership(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	other := e.addUser(t, models.RoleSender, "intruder")

	tender, err := e.tenders.Create(ctx, sessFor(owner), "Tender", "", models.ContractStandardNS8405, time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	_, err = e.tenders.Publish(ctx, sessFor(other), tender.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// admins bypass the ownership check
	admin := e.addUser(t, models.RoleAdmin, "admin")
	_, err = e.tenders.Publish(ctx, sessFor(admin), tender.ID)
	require.NoError(t, err)
}

func TestAwardSetsStandstill(t *testing.T) {
	standstill := 10 * 24 * time.Hour
	e := newEnv(standstill)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	before := time.Now().UTC()
	tender, bid := e.awardedTender(t, owner, supplier)
	after := time.Now().UTC()

	require.Equal(t, models.TenderStatusAwarded, tender.Status)
	require.NotNil(t, tender.AwardedBidID)
	require.Equal(t, bid.ID, *tender.AwardedBidID)
	require.NotNil(t, tender.StandstillEndDate)
	require.False(t, tender.StandstillEndDate.Before(before.Add(standstill)))
	require.False(t, tender.StandstillEndDate.After(after.Add(standstill)))

	// awarded is terminal
	_, err := e.tenders.Close(ctx, sessFor(owner), tender.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
	_, err = e.tenders.Reopen(ctx, sessFor(owner), tender.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	// the winning supplier is told
	notifs := e.notificationsFor(t, supplier.ID)
	require.Len(t, notifs, 1)
	require.Equal(t, models.NotificationNewBid, notifs[0].Type)
	require.Equal(t, "/tenders/"+tender.ID.Hex(), notifs[0].ActionURL)
}

func TestDomainOperationsSurviveDispatchFailure(t *testing.T) {
	e, fs := newFaultEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	fs.failNotificationCreate = true

	// publish, bid and award all succeed even though every notification
	// write fails underneath
	tender := e.openTender(t, owner)
	bid, err := e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 900, "")
	require.NoError(t, err)

	tender, err = e.tenders.Award(ctx, sessFor(owner), tender.ID, bid.ID)
	require.NoError(t, err)
	require.Equal(t, models.TenderStatusAwarded, tender.Status)
	require.NotNil(t, tender.AwardedBidID)
	require.NotNil(t, tender.StandstillEndDate)

	require.Empty(t, e.notificationsFor(t, owner.ID))
	require.Empty(t, e.notificationsFor(t, supplier.ID))
}

func TestAwardNotifiesWinnerAfterConcurrentReplace(t *testing.T) {
	e, fs := newFaultEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	bid, err := e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 900, "")
	require.NoError(t, err)

	// the reload after the award write sees a document without bids, as if
	// another writer replaced it in between
	fs.clearBidsOnReload = true

	_, err = e.tenders.Award(ctx, sessFor(owner), tender.ID, bid.ID)
	require.NoError(t, err)

	var awardNotices int
	for _, n := range e.notificationsFor(t, supplier.ID) {
		if n.Type == models.NotificationNewBid {
			awardNotices++
			require.Equal(t, bid.ID, *n.Metadata.BidID)
		}
	}
	require.Equal(t, 1, awardNotices)
}

func TestAwardRejectsForeignBid(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	other := e.openTender(t, owner)
	bid, err := e.tenders.SubmitBid(ctx, sessFor(supplier), other.ID, 100, "")
	require.NoError(t, err)

	_, err = e.tenders.Award(ctx, sessFor(owner), tender.ID, bid.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestSubmitBidRules(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender, err := e.tenders.Create(ctx, sessFor(owner), "Tender", "", models.ContractStandardNS8405, time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	// no bids on drafts
	_, err = e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 500, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	_, err = e.tenders.Publish(ctx, sessFor(owner), tender.ID)
	require.NoError(t, err)

	bid, err := e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 500, "")
	require.NoError(t, err)
	require.Equal(t, "FIXED_PRICE", bid.PriceStructure)
	require.Equal(t, supplier.CompanyName, bid.CompanyName)

	// one bid per supplier
	_, err = e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 400, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	// the owner hears about the bid
	notifs := e.notificationsFor(t, owner.ID)
	require.Len(t, notifs, 1)
	require.Equal(t, models.NotificationNewBid, notifs[0].Type)
}

func TestInviteSupplier(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	tender, err := e.tenders.InviteSupplier(ctx, sessFor(owner), tender.ID, supplier.ID, supplier.Email)
	require.NoError(t, err)
	require.Len(t, tender.InvitedSuppliers, 1)
	require.Equal(t, models.InvitationStatusPending, tender.InvitedSuppliers[0].Status)

	// double invitations are rejected
	_, err = e.tenders.InviteSupplier(ctx, sessFor(owner), tender.ID, supplier.ID, supplier.Email)
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	notifs := e.notificationsFor(t, supplier.ID)
	require.Len(t, notifs, 1)
	require.Equal(t, models.NotificationTenderInvitation, notifs[0].Type)

	// invited supplier sees the tender in their listing
	listed, err := e.tenders.ListForUser(ctx, sessFor(supplier))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, tender.ID, listed[0].ID)
}

func TestAwardedTenderIsImmutable(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender, _ := e.awardedTender(t, owner, supplier)

	_, err := e.tenders.AttachDocument(ctx, sessFor(owner), tender.ID, models.TenderDocument{FileName: "late.pdf"})
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestSendDeadlineReminders(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender, err := e.tenders.Create(ctx, sessFor(owner), "Due soon", "", models.ContractStandardNS8405, time.Now().Add(2*time.Hour), nil)
	require.NoError(t, err)
	_, err = e.tenders.Publish(ctx, sessFor(owner), tender.ID)
	require.NoError(t, err)
	_, err = e.tenders.InviteSupplier(ctx, sessFor(owner), tender.ID, supplier.ID, supplier.Email)
	require.NoError(t, err)
	_, err = e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 500, "")
	require.NoError(t, err)

	processed, err := e.tenders.SendDeadlineReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	// invited and bidding under the same identity gets exactly one reminder
	reminders := 0
	for _, n := range e.notificationsFor(t, supplier.ID) {
		if n.Type == models.NotificationTenderDeadlineReminder {
			reminders++
		}
	}
	require.Equal(t, 1, reminders)

	// the marker stops a second round
	processed, err = e.tenders.SendDeadlineReminders(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 0, processed)
}
