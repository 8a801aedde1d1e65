package preview

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cantai/cifra/pkg/errors"
)

// MongoOptions configures a MongoStore.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string

	// Timeout bounds server selection and the initial ping.
	Timeout time.Duration
}

func (o *MongoOptions) setDefaults() {
	if o.Database == "" {
		o.Database = "cifra"
	}
	if o.Collection == "" {
		o.Collection = "previews"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
}

// MongoStore keeps previews in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to MongoDB, verifies the connection and ensures the
// collection's indexes exist.
func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	opts.setDefaults()
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.Timeout).
		SetConnectTimeout(opts.Timeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "connect to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "mongo unavailable")
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}
	_, err = s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "text_hash", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "create preview indexes")
	}
	return s, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	return s.findOne(ctx, bson.M{"_id": id}, nil, id)
}

func (s *MongoStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findOne(ctx, bson.M{"text_hash": hash}, opts, "with hash "+hash)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions, what string) (*Record, error) {
	var r Record
	res := s.coll.FindOne(ctx, filter, opts)
	if err := res.Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound(what)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "read preview")
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (s *MongoStore) Put(ctx context.Context, r *Record) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "store preview %s", r.ID)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(listLimit(limit)))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "list previews")
	}
	var out []*Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "list previews")
	}
	for _, r := range out {
		r.CreatedAt = r.CreatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "delete preview %s", id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
