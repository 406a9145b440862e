package store

import (
	"context"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CancelFunc tears down a live subscription. It is safe to call more than
// once; the second call is a no-op.
type CancelFunc func()

// Store is the persistence boundary of the core. Every method that fetches a
// single entity returns an error wrapping apperrors.ErrNotFound when the id
// does not resolve. Writes are whole-document replaces: the store's
// per-document atomicity is the only consistency boundary, and concurrent
// writers to the same document race with last-write-wins.
type Store interface {
	CreateTender(ctx context.Context, t *models.Tender) error
	GetTender(ctx context.Context, id bson.ObjectID) (*models.Tender, error)
	ReplaceTender(ctx context.Context, t *models.Tender) error
	DeleteTender(ctx context.Context, id bson.ObjectID) error
	ListTendersForOwner(ctx context.Context, ownerID bson.ObjectID) ([]models.Tender, error)
	ListTendersForSupplier(ctx context.Context, supplierID bson.ObjectID) ([]models.Tender, error)
	ListOpenTendersWithDeadlineBefore(ctx context.Context, cutoff time.Time) ([]models.Tender, error)

	CreateContract(ctx context.Context, c *models.Contract) error
	GetContract(ctx context.Context, id bson.ObjectID) (*models.Contract, error)
	GetContractByTender(ctx context.Context, tenderID bson.ObjectID) (*models.Contract, error)
	ReplaceContract(ctx context.Context, c *models.Contract) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id bson.ObjectID) (*models.Notification, error)
	ReplaceNotification(ctx context.Context, n *models.Notification) error
	DeleteNotification(ctx context.Context, id bson.ObjectID) error
	ListNotificationsForUser(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error)
	ListUnreadNotificationsForUser(ctx context.Context, userID bson.ObjectID) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID bson.ObjectID) (int64, error)

	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id bson.ObjectID) (*models.Complaint, error)
	ReplaceComplaint(ctx context.Context, c *models.Complaint) error
	ListComplaintsForTender(ctx context.Context, tenderID bson.ObjectID) ([]models.Complaint, error)

	GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error)
	UpdateUserNotificationPreferences(ctx context.Context, userID bson.ObjectID, prefs map[string]bool) error

	// WatchTender delivers the full tender document after every change until
	// cancelled. Subscriptions with the same tender id share one upstream
	// listener.
	WatchTender(ctx context.Context, id bson.ObjectID, onChange func(*models.Tender), onError func(error)) (CancelFunc, error)

	// WatchUserNotifications delivers every new or updated notification owned
	// by the user until cancelled.
	WatchUserNotifications(ctx context.Context, userID bson.ObjectID, onChange func(*models.Notification), onError func(error)) (CancelFunc, error)
}
