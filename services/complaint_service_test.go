package services

import (
	"context"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/stretchr/testify/require"
)

func TestSubmitComplaintDuringStandstill(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	winner := e.addUser(t, models.RoleSupplier, "winner")
	loser := e.addUser(t, models.RoleSupplier, "loser")

	tender, _ := e.awardedTender(t, owner, winner)

	complaint, err := e.complaints.Submit(ctx, sessFor(loser), tender.ID, "The evaluation criteria were not applied consistently.")
	require.NoError(t, err)
	require.Equal(t, models.ComplaintStatusSubmitted, complaint.Status)
	require.Equal(t, loser.ID, complaint.ComplainantID)
	require.Equal(t, loser.CompanyName, complaint.CompanyName)
	require.Nil(t, complaint.ResolvedAt)

	// the tender owner is told
	var sawComplaint bool
	for _, n := range e.notificationsFor(t, owner.ID) {
		if n.Type == models.NotificationComplaintSubmitted {
			sawComplaint = true
			require.Equal(t, "/complaints/"+complaint.ID.Hex(), n.ActionURL)
		}
	}
	require.True(t, sawComplaint)
}

func TestComplaintRejectedAfterStandstill(t *testing.T) {
	e := newEnv(-time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	winner := e.addUser(t, models.RoleSupplier, "winner")
	loser := e.addUser(t, models.RoleSupplier, "loser")

	tender, _ := e.awardedTender(t, owner, winner)

	_, err := e.complaints.Submit(ctx, sessFor(loser), tender.ID, "too late")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestComplaintRequiresAwardedTender(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	supplier := e.addUser(t, models.RoleSupplier, "entreprenor")

	tender := e.openTender(t, owner)
	_, err := e.complaints.Submit(ctx, sessFor(supplier), tender.ID, "premature")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)
}

func TestUpdateComplaintStatus(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	winner := e.addUser(t, models.RoleSupplier, "winner")
	loser := e.addUser(t, models.RoleSupplier, "loser")

	tender, _ := e.awardedTender(t, owner, winner)
	complaint, err := e.complaints.Submit(ctx, sessFor(loser), tender.ID, "challenge")
	require.NoError(t, err)

	// only the tender owner or an admin resolves complaints
	_, err = e.complaints.UpdateStatus(ctx, sessFor(loser), complaint.ID, models.ComplaintStatusUnderReview)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	complaint, err = e.complaints.UpdateStatus(ctx, sessFor(owner), complaint.ID, models.ComplaintStatusUnderReview)
	require.NoError(t, err)
	require.Equal(t, models.ComplaintStatusUnderReview, complaint.Status)
	require.Nil(t, complaint.ResolvedAt)

	complaint, err = e.complaints.UpdateStatus(ctx, sessFor(owner), complaint.ID, models.ComplaintStatusRejected)
	require.NoError(t, err)
	require.NotNil(t, complaint.ResolvedAt)

	_, err = e.complaints.UpdateStatus(ctx, sessFor(owner), complaint.ID, "BOGUS")
	require.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	// the complainant hears about every status change
	updates := 0
	for _, n := range e.notificationsFor(t, loser.ID) {
		if n.Type == models.NotificationComplaintStatusUpdate {
			updates++
		}
	}
	require.Equal(t, 2, updates)

	listed, err := e.complaints.ListForTender(ctx, sessFor(owner), tender.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestComplaintReadsAreGated(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	owner := e.addUser(t, models.RoleSender, "byggherre")
	winner := e.addUser(t, models.RoleSupplier, "winner")
	loser := e.addUser(t, models.RoleSupplier, "loser")
	outsider := e.addUser(t, models.RoleSupplier, "outsider")
	admin := e.addUser(t, models.RoleAdmin, "admin")

	tender, _ := e.awardedTender(t, owner, winner)
	complaint, err := e.complaints.Submit(ctx, sessFor(loser), tender.ID, "challenge")
	require.NoError(t, err)

	// complainant, tender owner and admin may read
	for _, u := range []*models.User{loser, owner, admin} {
		got, err := e.complaints.Get(ctx, sessFor(u), complaint.ID)
		require.NoError(t, err)
		require.Equal(t, complaint.ID, got.ID)
	}

	// anyone else may not, the winning supplier included
	for _, u := range []*models.User{outsider, winner} {
		_, err := e.complaints.Get(ctx, sessFor(u), complaint.ID)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	}

	// listing is for the tender owner and admins only
	_, err = e.complaints.ListForTender(ctx, sessFor(loser), tender.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	listed, err := e.complaints.ListForTender(ctx, sessFor(admin), tender.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
