package services

import (
	"context"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPreferenceGating(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()

	muted := &models.User{
		Email:       "muted@example.com",
		Role:        models.RoleSender,
		CompanyName: "muted",
		IsActive:    true,
		NotificationPreferences: map[string]bool{
			models.PrefBids: false,
		},
	}
	e.store.PutUser(muted)

	// the gated type is skipped, not an error
	n, skipped, err := e.notifier.Create(ctx, muted.ID, models.NotificationNewBid, "t", "m", models.NotificationMetadata{}, "/tenders/x", false)
	require.NoError(t, err)
	require.True(t, skipped)
	require.Nil(t, n)
	require.Empty(t, e.notificationsFor(t, muted.ID))

	// other types still get through
	_, skipped, err = e.notifier.Create(ctx, muted.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "/tenders/x", false)
	require.NoError(t, err)
	require.False(t, skipped)

	// skipPreferenceCheck overrides the gate
	_, skipped, err = e.notifier.Create(ctx, muted.ID, models.NotificationNewBid, "t", "m", models.NotificationMetadata{}, "/tenders/x", true)
	require.NoError(t, err)
	require.False(t, skipped)

	require.Len(t, e.notificationsFor(t, muted.ID), 2)
}

func TestPreferenceDefaultsToEnabled(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()

	// user without a preference map
	plain := e.addUser(t, models.RoleSupplier, "plain")
	_, skipped, err := e.notifier.Create(ctx, plain.ID, models.NotificationNewBid, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)
	require.False(t, skipped)

	// recipient with no user document at all
	ghost := models.SessionContext{}
	_, skipped, err = e.notifier.Create(ctx, ghost.ActorID, models.NotificationNewBid, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)
	require.False(t, skipped)

	// complaint types are never gated
	muted := &models.User{
		Email:    "allmuted@example.com",
		Role:     models.RoleSupplier,
		IsActive: true,
		NotificationPreferences: map[string]bool{
			models.PrefInvitations:       false,
			models.PrefBids:              false,
			models.PrefDeadlineReminders: false,
			models.PrefQuestions:         false,
			models.PrefContracts:         false,
		},
	}
	e.store.PutUser(muted)
	_, skipped, err = e.notifier.Create(ctx, muted.ID, models.NotificationComplaintStatusUpdate, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)
	require.False(t, skipped)
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	user := e.addUser(t, models.RoleSupplier, "reader")

	n, _, err := e.notifier.Create(ctx, user.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)

	first, err := e.notifier.MarkAsRead(ctx, sessFor(user), n.ID)
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	again, err := e.notifier.MarkAsRead(ctx, sessFor(user), n.ID)
	require.NoError(t, err)
	require.Equal(t, first.ReadAt.Unix(), again.ReadAt.Unix())

	// a stranger cannot touch it
	stranger := e.addUser(t, models.RoleSupplier, "stranger")
	_, err = e.notifier.MarkAsRead(ctx, sessFor(stranger), n.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestMarkAllAsRead(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	user := e.addUser(t, models.RoleSupplier, "reader")

	for i := 0; i < 3; i++ {
		_, _, err := e.notifier.Create(ctx, user.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "", false)
		require.NoError(t, err)
	}
	n, _, err := e.notifier.Create(ctx, user.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)
	_, err = e.notifier.MarkAsRead(ctx, sessFor(user), n.ID)
	require.NoError(t, err)

	marked, err := e.notifier.MarkAllAsRead(ctx, sessFor(user))
	require.NoError(t, err)
	require.Equal(t, 3, marked, "already-read notifications are not re-marked")

	count, err := e.notifier.UnreadCount(ctx, sessFor(user))
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMarkAllAsReadPartialFailure(t *testing.T) {
	e, fs := newFaultEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	user := e.addUser(t, models.RoleSupplier, "reader")

	var ids []bson.ObjectID
	for i := 0; i < 3; i++ {
		n, _, err := e.notifier.Create(ctx, user.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "", false)
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	fs.failNotificationReplace = ids[1]

	// updates already applied stay applied; the first error comes back with
	// the count actually marked
	marked, err := e.notifier.MarkAllAsRead(ctx, sessFor(user))
	require.ErrorIs(t, err, apperrors.ErrStoreFailure)
	require.Equal(t, 2, marked)

	count, err := e.notifier.UnreadCount(ctx, sessFor(user))
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// a retry hits only the still-failing one
	marked, err = e.notifier.MarkAllAsRead(ctx, sessFor(user))
	require.ErrorIs(t, err, apperrors.ErrStoreFailure)
	require.Zero(t, marked)

	// once the store recovers the remainder goes through
	fs.failNotificationReplace = bson.ObjectID{}
	marked, err = e.notifier.MarkAllAsRead(ctx, sessFor(user))
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	count, err = e.notifier.UnreadCount(ctx, sessFor(user))
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPreferencesRoundTrip(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	user := e.addUser(t, models.RoleSupplier, "prefuser")

	prefs, err := e.notifier.Preferences(ctx, sessFor(user))
	require.NoError(t, err)
	for key, enabled := range prefs {
		require.True(t, enabled, "expected %s to default to enabled", key)
	}

	err = e.notifier.UpdatePreferences(ctx, sessFor(user), map[string]bool{models.PrefDeadlineReminders: false})
	require.NoError(t, err)

	prefs, err = e.notifier.Preferences(ctx, sessFor(user))
	require.NoError(t, err)
	require.False(t, prefs[models.PrefDeadlineReminders])
	require.True(t, prefs[models.PrefBids], "untouched keys stay enabled")
}

func TestDeleteNotification(t *testing.T) {
	e := newEnv(10 * 24 * time.Hour)
	ctx := context.Background()
	user := e.addUser(t, models.RoleSupplier, "owner")

	n, _, err := e.notifier.Create(ctx, user.ID, models.NotificationQuestionAsked, "t", "m", models.NotificationMetadata{}, "", false)
	require.NoError(t, err)

	stranger := e.addUser(t, models.RoleSupplier, "stranger")
	err = e.notifier.Delete(ctx, sessFor(stranger), n.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, e.notifier.Delete(ctx, sessFor(user), n.ID))
	err = e.notifier.Delete(ctx, sessFor(user), n.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
