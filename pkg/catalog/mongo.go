package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

// Defaults for MongoDB locations that do not name a database or collection.
const (
	DefaultMongoDatabase   = "masonry"
	DefaultMongoCollection = "images"
)

const mongoConnectTimeout = 10 * time.Second

// MongoSource serves items from a MongoDB collection. Documents carry the
// item fields under "id", "width" and "height".
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
}

// OpenMongo connects to the database named in uri. The collection is taken
// from the "collection" query parameter and defaults to
// DefaultMongoCollection.
//
//	mongodb://localhost:27017/gallery?collection=images
func OpenMongo(ctx context.Context, uri string) (*MongoSource, error) {
	clientURI, dbName, collName, err := splitMongoURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(clientURI).
		SetConnectTimeout(mongoConnectTimeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "connect to mongodb")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	return &MongoSource{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
		name:   fmt.Sprintf("mongodb:%s.%s", dbName, collName),
	}, nil
}

// NewMongoSource wraps an existing collection. Close does not disconnect
// the client.
func NewMongoSource(coll *mongo.Collection) *MongoSource {
	return &MongoSource{coll: coll, name: "mongodb:" + coll.Database().Name() + "." + coll.Name()}
}

// Load implements Source.
func (s *MongoSource) Load(ctx context.Context, limit, offset int) ([]layout.Item, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetSkip(int64(max(offset, 0))).
		SetLimit(int64(max(limit, 0))).
		SetProjection(bson.D{
			{Key: "_id", Value: 0},
			{Key: "id", Value: 1},
			{Key: "width", Value: 1},
			{Key: "height", Value: 1},
		})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}
	items := []layout.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return items, nil
}

// Insert stores items as documents.
func (s *MongoSource) Insert(ctx context.Context, items []layout.Item) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]any, len(items))
	for i, it := range items {
		docs[i] = it
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}

// Name implements Source.
func (s *MongoSource) Name() string { return s.name }

// Close implements Source.
func (s *MongoSource) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// splitMongoURI removes the collection parameter from uri and returns the
// client URI with the database and collection names.
func splitMongoURI(uri string) (clientURI, db, coll string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", "", errors.Wrap(errors.ErrCodeInvalidSource, err, "parse mongodb uri")
	}

	q := u.Query()
	coll = q.Get("collection")
	if coll == "" {
		coll = DefaultMongoCollection
	}
	q.Del("collection")
	u.RawQuery = q.Encode()

	db = strings.TrimPrefix(u.Path, "/")
	if db == "" {
		db = DefaultMongoDatabase
	}
	return u.String(), db, coll, nil
}
