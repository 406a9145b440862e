package services

import (
	"context"
	"errors"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotificationService is the dispatch engine plus the read-state operations.
// The engine knows nothing about message content; the event adapters in
// notify_events.go translate domain events into titles and metadata.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(s store.Store) *NotificationService {
	return &NotificationService{store: s}
}

// Create persists a notification for the recipient unless the recipient has
// explicitly disabled the preference that gates this type. A disabled
// preference is not an error: the write is skipped and skipped=true is
// returned. Recipients without a stored preference mapping (or without a user
// document at all) get every notification; that keeps recipients created
// before preferences existed working.
func (s *NotificationService) Create(
	ctx context.Context,
	recipientID bson.ObjectID,
	typ models.NotificationType,
	title, message string,
	metadata models.NotificationMetadata,
	actionURL string,
	skipPreferenceCheck bool,
) (*models.Notification, bool, error) {
	if !skipPreferenceCheck {
		if key, gated := models.PreferenceKeyForType[typ]; gated {
			user, err := s.store.GetUser(ctx, recipientID)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				// no profile, default enabled
			case err != nil:
				return nil, false, storeErr("load notification preferences", err)
			default:
				if enabled, ok := user.NotificationPreferences[key]; ok && !enabled {
					return nil, true, nil
				}
			}
		}
	}

	n := &models.Notification{
		UserID:    recipientID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		ActionURL: actionURL,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, false, storeErr("create notification", err)
	}
	return n, false, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, sess models.SessionContext, limit int) ([]models.Notification, error) {
	items, err := s.store.ListNotificationsForUser(ctx, sess.EffectiveID(), limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, sess models.SessionContext) (int64, error) {
	count, err := s.store.CountUnreadNotifications(ctx, sess.EffectiveID())
	if err != nil {
		return 0, storeErr("count unread notifications", err)
	}
	return count, nil
}

// MarkAsRead is idempotent: marking an already-read notification succeeds and
// leaves ReadAt untouched.
func (s *NotificationService) MarkAsRead(ctx context.Context, sess models.SessionContext, id bson.ObjectID) (*models.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, storeErr("load notification", err)
	}
	if !sess.CanActOn(n.UserID) {
		return nil, apperrors.Forbidden("notification belongs to another user")
	}
	if n.Read {
		return n, nil
	}
	now := time.Now().UTC()
	n.Read = true
	n.ReadAt = &now
	if err := s.store.ReplaceNotification(ctx, n); err != nil {
		return nil, storeErr("mark notification read", err)
	}
	return n, nil
}

// MarkAllAsRead fans out one update per unread notification. It is
// best-effort: updates already applied are not rolled back when a later one
// fails. The returned count is the number of notifications actually marked.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, sess models.SessionContext) (int, error) {
	unread, err := s.store.ListUnreadNotificationsForUser(ctx, sess.EffectiveID())
	if err != nil {
		return 0, storeErr("list unread notifications", err)
	}
	now := time.Now().UTC()
	marked := 0
	var firstErr error
	for i := range unread {
		n := unread[i]
		n.Read = true
		n.ReadAt = &now
		if err := s.store.ReplaceNotification(ctx, &n); err != nil {
			if firstErr == nil {
				firstErr = storeErr("mark notification read", err)
			}
			continue
		}
		marked++
	}
	return marked, firstErr
}

func (s *NotificationService) Delete(ctx context.Context, sess models.SessionContext, id bson.ObjectID) error {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return storeErr("load notification", err)
	}
	if !sess.CanActOn(n.UserID) {
		return apperrors.Forbidden("notification belongs to another user")
	}
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return storeErr("delete notification", err)
	}
	return nil
}

// Preferences returns the user's mapping with every known key present,
// absent keys filled in as enabled.
func (s *NotificationService) Preferences(ctx context.Context, sess models.SessionContext) (map[string]bool, error) {
	user, err := s.store.GetUser(ctx, sess.EffectiveID())
	if err != nil {
		return nil, storeErr("load user", err)
	}
	prefs := map[string]bool{
		models.PrefInvitations:       true,
		models.PrefBids:              true,
		models.PrefDeadlineReminders: true,
		models.PrefQuestions:         true,
		models.PrefContracts:         true,
	}
	for k, v := range user.NotificationPreferences {
		prefs[k] = v
	}
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, sess models.SessionContext, prefs map[string]bool) error {
	if err := s.store.UpdateUserNotificationPreferences(ctx, sess.EffectiveID(), prefs); err != nil {
		return storeErr("update notification preferences", err)
	}
	return nil
}
