package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Mem is an in-memory Store used by tests and local development. Documents
// are deep-copied on the way in and out so callers never alias stored state.
type Mem struct {
	mu sync.Mutex

	tenders       map[bson.ObjectID]*models.Tender
	contracts     map[bson.ObjectID]*models.Contract
	notifications map[bson.ObjectID]*models.Notification
	complaints    map[bson.ObjectID]*models.Complaint
	users         map[bson.ObjectID]*models.User

	nextSubID  int
	tenderSubs map[bson.ObjectID]map[int]watchSub
	notifSubs  map[bson.ObjectID]map[int]watchSub
}

func NewMem() *Mem {
	return &Mem{
		tenders:       map[bson.ObjectID]*models.Tender{},
		contracts:     map[bson.ObjectID]*models.Contract{},
		notifications: map[bson.ObjectID]*models.Notification{},
		complaints:    map[bson.ObjectID]*models.Complaint{},
		users:         map[bson.ObjectID]*models.User{},
		tenderSubs:    map[bson.ObjectID]map[int]watchSub{},
		notifSubs:     map[bson.ObjectID]map[int]watchSub{},
	}
}

func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func rawOf[T any](v *T) bson.Raw {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// ----- tenders --------------------------------------------------------------

func (m *Mem) CreateTender(ctx context.Context, t *models.Tender) error {
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	m.mu.Lock()
	m.tenders[t.ID] = clone(t)
	subs := m.tenderSubscribers(t.ID)
	m.mu.Unlock()
	notify(subs, rawOf(t))
	return nil
}

func (m *Mem) GetTender(ctx context.Context, id bson.ObjectID) (*models.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenders[id]
	if !ok {
		return nil, apperrors.NotFound("tender")
	}
	return clone(t), nil
}

func (m *Mem) ReplaceTender(ctx context.Context, t *models.Tender) error {
	m.mu.Lock()
	if _, ok := m.tenders[t.ID]; !ok {
		m.mu.Unlock()
		return apperrors.NotFound("tender")
	}
	m.tenders[t.ID] = clone(t)
	subs := m.tenderSubscribers(t.ID)
	m.mu.Unlock()
	notify(subs, rawOf(t))
	return nil
}

func (m *Mem) DeleteTender(ctx context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenders[id]; !ok {
		return apperrors.NotFound("tender")
	}
	delete(m.tenders, id)
	return nil
}

func (m *Mem) ListTendersForOwner(ctx context.Context, ownerID bson.ObjectID) ([]models.Tender, error) {
	return m.filterTenders(func(t *models.Tender) bool { return t.CreatedBy == ownerID }), nil
}

func (m *Mem) ListTendersForSupplier(ctx context.Context, supplierID bson.ObjectID) ([]models.Tender, error) {
	return m.filterTenders(func(t *models.Tender) bool {
		if t.HasBidFrom(supplierID) {
			return true
		}
		for _, inv := range t.InvitedSuppliers {
			if inv.SupplierID == supplierID {
				return true
			}
		}
		return false
	}), nil
}

func (m *Mem) ListOpenTendersWithDeadlineBefore(ctx context.Context, cutoff time.Time) ([]models.Tender, error) {
	return m.filterTenders(func(t *models.Tender) bool {
		return t.Status == models.TenderStatusOpen &&
			!t.Deadline.After(cutoff) &&
			t.DeadlineReminderSentAt == nil
	}), nil
}

func (m *Mem) filterTenders(keep func(*models.Tender) bool) []models.Tender {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.Tender, 0)
	for _, t := range m.tenders {
		if keep(t) {
			items = append(items, *clone(t))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

// ----- contracts ------------------------------------------------------------

func (m *Mem) CreateContract(ctx context.Context, c *models.Contract) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = clone(c)
	return nil
}

func (m *Mem) GetContract(ctx context.Context, id bson.ObjectID) (*models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, apperrors.NotFound("contract")
	}
	return clone(c), nil
}

func (m *Mem) GetContractByTender(ctx context.Context, tenderID bson.ObjectID) (*models.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contracts {
		if c.TenderID == tenderID {
			return clone(c), nil
		}
	}
	return nil, apperrors.NotFound("contract")
}

func (m *Mem) ReplaceContract(ctx context.Context, c *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.ID]; !ok {
		return apperrors.NotFound("contract")
	}
	m.contracts[c.ID] = clone(c)
	return nil
}

// ----- notifications --------------------------------------------------------

func (m *Mem) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	m.mu.Lock()
	m.notifications[n.ID] = clone(n)
	subs := m.notifSubscribers(n.UserID)
	m.mu.Unlock()
	notify(subs, rawOf(n))
	return nil
}

func (m *Mem) GetNotification(ctx context.Context, id bson.ObjectID) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, apperrors.NotFound("notification")
	}
	return clone(n), nil
}

func (m *Mem) ReplaceNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	if _, ok := m.notifications[n.ID]; !ok {
		m.mu.Unlock()
		return apperrors.NotFound("notification")
	}
	m.notifications[n.ID] = clone(n)
	subs := m.notifSubscribers(n.UserID)
	m.mu.Unlock()
	notify(subs, rawOf(n))
	return nil
}

func (m *Mem) DeleteNotification(ctx context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[id]; !ok {
		return apperrors.NotFound("notification")
	}
	delete(m.notifications, id)
	return nil
}

func (m *Mem) ListNotificationsForUser(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID {
			items = append(items, *clone(n))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *Mem) ListUnreadNotificationsForUser(ctx context.Context, userID bson.ObjectID) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			items = append(items, *clone(n))
		}
	}
	return items, nil
}

func (m *Mem) CountUnreadNotifications(ctx context.Context, userID bson.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// ----- complaints -----------------------------------------------------------

func (m *Mem) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints[c.ID] = clone(c)
	return nil
}

func (m *Mem) GetComplaint(ctx context.Context, id bson.ObjectID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, apperrors.NotFound("complaint")
	}
	return clone(c), nil
}

func (m *Mem) ReplaceComplaint(ctx context.Context, c *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.complaints[c.ID]; !ok {
		return apperrors.NotFound("complaint")
	}
	m.complaints[c.ID] = clone(c)
	return nil
}

func (m *Mem) ListComplaintsForTender(ctx context.Context, tenderID bson.ObjectID) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]models.Complaint, 0)
	for _, c := range m.complaints {
		if c.TenderID == tenderID {
			items = append(items, *clone(c))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// ----- users ----------------------------------------------------------------

func (m *Mem) PutUser(u *models.User) {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = clone(u)
}

func (m *Mem) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return clone(u), nil
}

func (m *Mem) UpdateUserNotificationPreferences(ctx context.Context, userID bson.ObjectID, prefs map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NotFound("user")
	}
	u.NotificationPreferences = map[string]bool{}
	for k, v := range prefs {
		u.NotificationPreferences[k] = v
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ----- change subscriptions -------------------------------------------------

func notify(subs []watchSub, doc bson.Raw) {
	for _, s := range subs {
		s.onChange(doc)
	}
}

func (m *Mem) tenderSubscribers(id bson.ObjectID) []watchSub {
	subs := make([]watchSub, 0, len(m.tenderSubs[id]))
	for _, s := range m.tenderSubs[id] {
		subs = append(subs, s)
	}
	return subs
}

func (m *Mem) notifSubscribers(userID bson.ObjectID) []watchSub {
	subs := make([]watchSub, 0, len(m.notifSubs[userID]))
	for _, s := range m.notifSubs[userID] {
		subs = append(subs, s)
	}
	return subs
}

func (m *Mem) WatchTender(ctx context.Context, id bson.ObjectID, onChange func(*models.Tender), onError func(error)) (CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tenderSubs[id] == nil {
		m.tenderSubs[id] = map[int]watchSub{}
	}
	subID := m.nextSubID
	m.nextSubID++
	m.tenderSubs[id][subID] = watchSub{
		onChange: func(doc bson.Raw) {
			var t models.Tender
			if err := bson.Unmarshal(doc, &t); err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			onChange(&t)
		},
		onError: onError,
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.tenderSubs[id], subID)
		})
	}, nil
}

func (m *Mem) WatchUserNotifications(ctx context.Context, userID bson.ObjectID, onChange func(*models.Notification), onError func(error)) (CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifSubs[userID] == nil {
		m.notifSubs[userID] = map[int]watchSub{}
	}
	subID := m.nextSubID
	m.nextSubID++
	m.notifSubs[userID][subID] = watchSub{
		onChange: func(doc bson.Raw) {
			var n models.Notification
			if err := bson.Unmarshal(doc, &n); err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			onChange(&n)
		},
		onError: onError,
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.notifSubs[userID], subID)
		})
	}, nil
}
