package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/moto/pkg/observability"
)

// DefaultMongoDatabase is used when the URI names no database.
const DefaultMongoDatabase = "moto"

// MongoStore is a Store backed by MongoDB. Each kind is a collection of the
// same name; accounts live in "accounts".
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// OpenMongo connects to uri and ensures the unique indexes exist.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("create accounts index: %w", err)
	}
	if _, err := s.db.Collection(string(KindStats)).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("create user_stats index: %w", err)
	}
	return nil
}

func (s *MongoStore) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnQuery(ctx, "mongo", op, time.Since(start), err)
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, kind Kind, ownerID string) (rec Record, err error) {
	defer func(start time.Time) { s.observe(ctx, "get "+string(kind), start, err) }(time.Now())

	switch kind {
	case KindProfiles:
		var p Profile
		if err := s.findOne(ctx, kind, bson.M{"_id": ownerID}, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case KindStats:
		var st Stats
		if err := s.findOne(ctx, kind, bson.M{"user_id": ownerID}, &st); err != nil {
			return nil, err
		}
		return &st, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (s *MongoStore) findOne(ctx context.Context, kind Kind, filter bson.M, out any) error {
	err := s.db.Collection(string(kind)).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", kind, err)
	}
	return nil
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, kind Kind, id string, patch Patch) (err error) {
	defer func(start time.Time) { s.observe(ctx, "update "+string(kind), start, err) }(time.Now())

	cols, err := patch.validate(kind)
	if err != nil {
		return err
	}
	set := bson.D{}
	for _, c := range cols {
		set = append(set, bson.E{Key: c.name, Value: sqlValue(c.value)})
	}
	set = append(set, bson.E{Key: "updated_at", Value: s.now()})

	res, err := s.db.Collection(string(kind)).UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert implements Store.
func (s *MongoStore) Insert(ctx context.Context, rec Record) (err error) {
	defer func(start time.Time) { s.observe(ctx, "insert "+string(rec.Kind()), start, err) }(time.Now())

	switch r := rec.(type) {
	case *Profile:
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = s.now()
		}
	case *Stats:
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = s.now()
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, rec)
	}
	if _, err := s.db.Collection(string(rec.Kind())).InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert %s: %w", rec.Kind(), err)
	}
	return nil
}

// CreateAccount implements AccountStore.
func (s *MongoStore) CreateAccount(ctx context.Context, acct *Account) (err error) {
	defer func(start time.Time) { s.observe(ctx, "create account", start, err) }(time.Now())

	acct.Email = NormalizeEmail(acct.Email)
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = s.now()
	}
	if _, err := s.db.Collection("accounts").InsertOne(ctx, acct); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// AccountByEmail implements AccountStore.
func (s *MongoStore) AccountByEmail(ctx context.Context, email string) (acct *Account, err error) {
	defer func(start time.Time) { s.observe(ctx, "account by email", start, err) }(time.Now())

	var a Account
	err = s.db.Collection("accounts").FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &a, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
