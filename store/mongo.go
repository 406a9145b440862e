package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/apperrors"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	colTenders       = "tenders"
	colContracts     = "contracts"
	colNotifications = "notifications"
	colComplaints    = "complaints"
	colUsers         = "users"
)

// Mongo implements Store on top of a MongoDB database. Change subscriptions
// are backed by change streams; streams with an identical filter key are
// shared between subscribers and closed when the last one cancels.
type Mongo struct {
	db *mongo.Database

	mu   sync.Mutex
	hubs map[string]*watchHub
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db, hubs: map[string]*watchHub{}}
}

func notFoundOr(entity string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(entity)
	}
	return err
}

// ----- tenders --------------------------------------------------------------

func (m *Mongo) CreateTender(ctx context.Context, t *models.Tender) error {
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	_, err := m.db.Collection(colTenders).InsertOne(ctx, t)
	return err
}

func (m *Mongo) GetTender(ctx context.Context, id bson.ObjectID) (*models.Tender, error) {
	var t models.Tender
	err := m.db.Collection(colTenders).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		return nil, notFoundOr("tender", err)
	}
	return &t, nil
}

func (m *Mongo) ReplaceTender(ctx context.Context, t *models.Tender) error {
	res, err := m.db.Collection(colTenders).ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("tender")
	}
	return nil
}

func (m *Mongo) DeleteTender(ctx context.Context, id bson.ObjectID) error {
	res, err := m.db.Collection(colTenders).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("tender")
	}
	return nil
}

func (m *Mongo) ListTendersForOwner(ctx context.Context, ownerID bson.ObjectID) ([]models.Tender, error) {
	return m.listTenders(ctx, bson.M{"createdBy": ownerID})
}

func (m *Mongo) ListTendersForSupplier(ctx context.Context, supplierID bson.ObjectID) ([]models.Tender, error) {
	return m.listTenders(ctx, bson.M{"$or": []bson.M{
		{"invitedSuppliers.supplierId": supplierID},
		{"bids.supplierId": supplierID},
	}})
}

func (m *Mongo) ListOpenTendersWithDeadlineBefore(ctx context.Context, cutoff time.Time) ([]models.Tender, error) {
	return m.listTenders(ctx, bson.M{
		"status":                 models.TenderStatusOpen,
		"deadline":               bson.M{"$lte": cutoff},
		"deadlineReminderSentAt": bson.M{"$exists": false},
	})
}

func (m *Mongo) listTenders(ctx context.Context, filter bson.M) ([]models.Tender, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.db.Collection(colTenders).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Tender, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ----- contracts ------------------------------------------------------------

func (m *Mongo) CreateContract(ctx context.Context, c *models.Contract) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	_, err := m.db.Collection(colContracts).InsertOne(ctx, c)
	return err
}

func (m *Mongo) GetContract(ctx context.Context, id bson.ObjectID) (*models.Contract, error) {
	var c models.Contract
	err := m.db.Collection(colContracts).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, notFoundOr("contract", err)
	}
	return &c, nil
}

func (m *Mongo) GetContractByTender(ctx context.Context, tenderID bson.ObjectID) (*models.Contract, error) {
	var c models.Contract
	err := m.db.Collection(colContracts).FindOne(ctx, bson.M{"tenderId": tenderID}).Decode(&c)
	if err != nil {
		return nil, notFoundOr("contract", err)
	}
	return &c, nil
}

func (m *Mongo) ReplaceContract(ctx context.Context, c *models.Contract) error {
	res, err := m.db.Collection(colContracts).ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("contract")
	}
	return nil
}

// ----- notifications --------------------------------------------------------

func (m *Mongo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	_, err := m.db.Collection(colNotifications).InsertOne(ctx, n)
	return err
}

func (m *Mongo) GetNotification(ctx context.Context, id bson.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := m.db.Collection(colNotifications).FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		return nil, notFoundOr("notification", err)
	}
	return &n, nil
}

func (m *Mongo) ReplaceNotification(ctx context.Context, n *models.Notification) error {
	res, err := m.db.Collection(colNotifications).ReplaceOne(ctx, bson.M{"_id": n.ID}, n)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

func (m *Mongo) DeleteNotification(ctx context.Context, id bson.ObjectID) error {
	res, err := m.db.Collection(colNotifications).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

func (m *Mongo) ListNotificationsForUser(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := m.db.Collection(colNotifications).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Notification, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *Mongo) ListUnreadNotificationsForUser(ctx context.Context, userID bson.ObjectID) ([]models.Notification, error) {
	cursor, err := m.db.Collection(colNotifications).Find(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Notification, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *Mongo) CountUnreadNotifications(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return m.db.Collection(colNotifications).CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}

// ----- complaints -----------------------------------------------------------

func (m *Mongo) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	_, err := m.db.Collection(colComplaints).InsertOne(ctx, c)
	return err
}

func (m *Mongo) GetComplaint(ctx context.Context, id bson.ObjectID) (*models.Complaint, error) {
	var c models.Complaint
	err := m.db.Collection(colComplaints).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, notFoundOr("complaint", err)
	}
	return &c, nil
}

func (m *Mongo) ReplaceComplaint(ctx context.Context, c *models.Complaint) error {
	res, err := m.db.Collection(colComplaints).ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("complaint")
	}
	return nil
}

func (m *Mongo) ListComplaintsForTender(ctx context.Context, tenderID bson.ObjectID) ([]models.Complaint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.db.Collection(colComplaints).Find(ctx, bson.M{"tenderId": tenderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Complaint, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ----- users ----------------------------------------------------------------

func (m *Mongo) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var u models.User
	err := m.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		return nil, notFoundOr("user", err)
	}
	return &u, nil
}

func (m *Mongo) UpdateUserNotificationPreferences(ctx context.Context, userID bson.ObjectID, prefs map[string]bool) error {
	res, err := m.db.Collection(colUsers).UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"notificationPreferences": prefs,
		"updatedAt":               time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// ----- change subscriptions -------------------------------------------------

type watchSub struct {
	onChange func(bson.Raw)
	onError  func(error)
}

// watchHub owns one change stream and fans events out to its subscribers.
// Hubs are keyed by collection + normalized filter, so repeated subscriptions
// with an identical filter reuse the same upstream stream instead of opening
// a new one per caller.
type watchHub struct {
	key    string
	cancel context.CancelFunc

	mu     sync.Mutex
	nextID int
	subs   map[int]watchSub
}

func (h *watchHub) dispatch(doc bson.Raw) {
	h.mu.Lock()
	subs := make([]watchSub, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.onChange(doc)
	}
}

func (h *watchHub) fail(err error) {
	h.mu.Lock()
	subs := make([]watchSub, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (m *Mongo) WatchTender(ctx context.Context, id bson.ObjectID, onChange func(*models.Tender), onError func(error)) (CancelFunc, error) {
	key := colTenders + "/" + id.Hex()
	filter := bson.D{{Key: "fullDocument._id", Value: id}}
	return m.subscribe(ctx, key, colTenders, filter, func(doc bson.Raw) {
		var t models.Tender
		if err := bson.Unmarshal(doc, &t); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(&t)
	}, onError)
}

func (m *Mongo) WatchUserNotifications(ctx context.Context, userID bson.ObjectID, onChange func(*models.Notification), onError func(error)) (CancelFunc, error) {
	key := colNotifications + "/user/" + userID.Hex()
	filter := bson.D{{Key: "fullDocument.userId", Value: userID}}
	return m.subscribe(ctx, key, colNotifications, filter, func(doc bson.Raw) {
		var n models.Notification
		if err := bson.Unmarshal(doc, &n); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(&n)
	}, onError)
}

func (m *Mongo) subscribe(ctx context.Context, key, collection string, filter bson.D, onChange func(bson.Raw), onError func(error)) (CancelFunc, error) {
	m.mu.Lock()
	hub, ok := m.hubs[key]
	if !ok {
		// The stream outlives the subscribing request context: later
		// subscribers on the same key attach to it.
		streamCtx, cancel := context.WithCancel(context.Background())
		pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: filter}}}
		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		cs, err := m.db.Collection(collection).Watch(streamCtx, pipeline, opts)
		if err != nil {
			cancel()
			m.mu.Unlock()
			return nil, err
		}
		hub = &watchHub{key: key, cancel: cancel, subs: map[int]watchSub{}}
		m.hubs[key] = hub
		go m.run(streamCtx, hub, cs)
	}
	hub.mu.Lock()
	id := hub.nextID
	hub.nextID++
	hub.subs[id] = watchSub{onChange: onChange, onError: onError}
	hub.mu.Unlock()
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { m.unsubscribe(hub, id) })
	}, nil
}

func (m *Mongo) unsubscribe(hub *watchHub, id int) {
	m.mu.Lock()
	hub.mu.Lock()
	delete(hub.subs, id)
	last := len(hub.subs) == 0
	hub.mu.Unlock()
	if last {
		delete(m.hubs, hub.key)
		hub.cancel()
	}
	m.mu.Unlock()
}

func (m *Mongo) run(ctx context.Context, hub *watchHub, cs *mongo.ChangeStream) {
	defer cs.Close(context.Background())
	for cs.Next(ctx) {
		var ev struct {
			OperationType string   `bson:"operationType"`
			FullDocument  bson.Raw `bson:"fullDocument"`
		}
		if err := cs.Decode(&ev); err != nil {
			hub.fail(err)
			continue
		}
		if len(ev.FullDocument) == 0 {
			// deletes carry no full document
			continue
		}
		hub.dispatch(ev.FullDocument)
	}
	if err := cs.Err(); err != nil && ctx.Err() == nil {
		hub.fail(err)
	}
}
