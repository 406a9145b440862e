package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// env bundles the services under test around one in-memory store.
type env struct {
	store      *store.Mem
	notifier   *NotificationService
	tenders    *TenderService
	contracts  *ContractService
	questions  *QuestionService
	complaints *ComplaintService
}

func newEnv(standstill time.Duration) *env {
	e, _ := newFaultEnv(standstill)
	return e
}

// newFaultEnv wires the services over a faultStore so individual tests can
// inject store failures the plain memory store can never produce.
func newFaultEnv(standstill time.Duration) (*env, *faultStore) {
	mem := store.NewMem()
	fs := &faultStore{Mem: mem}
	notifier := NewNotificationService(fs)
	return &env{
		store:      mem,
		notifier:   notifier,
		tenders:    NewTenderService(fs, notifier, standstill),
		contracts:  NewContractService(fs, notifier),
		questions:  NewQuestionService(fs, notifier),
		complaints: NewComplaintService(fs, notifier),
	}, fs
}

var errStoreDown = errors.New("storage unavailable")

// faultStore wraps the in-memory store and fails selected operations.
// The zero value passes everything straight through.
type faultStore struct {
	*store.Mem

	failNotificationCreate  bool
	failNotificationReplace bson.ObjectID
	failUserLoad            bson.ObjectID

	// clearBidsOnReload empties Bids on every tender load after the first,
	// standing in for a concurrent writer replacing the document.
	clearBidsOnReload bool
	tenderLoads       int
}

var _ store.Store = (*faultStore)(nil)

func (f *faultStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if f.failNotificationCreate {
		return errStoreDown
	}
	return f.Mem.CreateNotification(ctx, n)
}

func (f *faultStore) ReplaceNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == f.failNotificationReplace {
		return errStoreDown
	}
	return f.Mem.ReplaceNotification(ctx, n)
}

func (f *faultStore) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	if !f.failUserLoad.IsZero() && id == f.failUserLoad {
		return nil, errStoreDown
	}
	return f.Mem.GetUser(ctx, id)
}

func (f *faultStore) GetTender(ctx context.Context, id bson.ObjectID) (*models.Tender, error) {
	t, err := f.Mem.GetTender(ctx, id)
	if err == nil && f.clearBidsOnReload {
		f.tenderLoads++
		if f.tenderLoads > 1 {
			t.Bids = nil
		}
	}
	return t, err
}

func (e *env) addUser(t *testing.T, role models.Role, company string) *models.User {
	t.Helper()
	u := &models.User{
		Email:       company + "@example.com",
		Role:        role,
		CompanyID:   "org-" + company,
		CompanyName: company,
		IsActive:    true,
	}
	e.store.PutUser(u)
	return u
}

func sessFor(u *models.User) models.SessionContext {
	return models.SessionContext{
		ActorID:   u.ID,
		ActorRole: u.Role,
		IsAdmin:   u.Role == models.RoleAdmin,
	}
}

// openTender creates and publishes a tender owned by the given sender.
func (e *env) openTender(t *testing.T, owner *models.User) *models.Tender {
	t.Helper()
	ctx := context.Background()
	tender, err := e.tenders.Create(ctx, sessFor(owner), "New office building", "", models.ContractStandardNS8405, time.Now().Add(72*time.Hour), nil)
	require.NoError(t, err)
	tender, err = e.tenders.Publish(ctx, sessFor(owner), tender.ID)
	require.NoError(t, err)
	return tender
}

// awardedTender runs the full open -> bid -> award flow and returns the
// awarded tender plus the winning bid.
func (e *env) awardedTender(t *testing.T, owner, supplier *models.User) (*models.Tender, *models.Bid) {
	t.Helper()
	ctx := context.Background()
	tender := e.openTender(t, owner)
	bid, err := e.tenders.SubmitBid(ctx, sessFor(supplier), tender.ID, 1_500_000, "")
	require.NoError(t, err)
	tender, err = e.tenders.Award(ctx, sessFor(owner), tender.ID, bid.ID)
	require.NoError(t, err)
	return tender, bid
}

func (e *env) notificationsFor(t *testing.T, userID bson.ObjectID) []models.Notification {
	t.Helper()
	items, err := e.store.ListNotificationsForUser(context.Background(), userID, 0)
	require.NoError(t, err)
	return items
}

func TestIsStandstillEnded(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.False(t, IsStandstillEnded(end.Add(-time.Second), end))
	require.True(t, IsStandstillEnded(end, end), "the exact end instant counts as ended")
	require.True(t, IsStandstillEnded(end.Add(time.Second), end))
}
