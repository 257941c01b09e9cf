package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/enums"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const codeNamespaceExists = 48

// Client owns the document store connection and the notifications collection.
type Client struct {
	raw  *mongo.Client
	db   *mongo.Database
	coll *mongo.Collection
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New connects to the document store and verifies it is reachable.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("mongo database and collection are required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	raw, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := raw.Ping(ctx, readpref.Primary()); err != nil {
		_ = raw.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := raw.Database(cfg.Database)
	client := &Client{raw: raw, db: db, coll: db.Collection(cfg.Collection)}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"database":   cfg.Database,
			"collection": cfg.Collection,
		}), "document store connection established")
	}
	return client, nil
}

// Collection returns the notifications collection handle.
func (c *Client) Collection() *mongo.Collection {
	return c.coll
}

// Ping verifies the document store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.raw.Ping(ctx, readpref.Primary())
}

// Close disconnects, waiting at most timeout for in-flight operations.
func (c *Client) Close(ctx context.Context, timeout time.Duration) error {
	if c.raw == nil {
		return nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.raw.Disconnect(ctx)
}

// EnsureSchema creates the notifications collection with its validator.
func (c *Client) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, c.db, c.coll.Name())
}

// NotificationSchema is the $jsonSchema enforced on notification bodies.
func NotificationSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"title", "action"},
		"properties": bson.M{
			"title": bson.M{
				"bsonType":    "string",
				"minLength":   1,
				"description": "must be a non-empty string",
			},
			"description": bson.M{
				"bsonType": "string",
			},
			"action": bson.M{
				"bsonType":    "array",
				"minItems":    1,
				"uniqueItems": true,
				"items": bson.M{
					"enum": toBSONArray(enums.ActionVocabulary()),
				},
			},
		},
	}
}

// EnsureSchema creates collection inside db with the notification validator.
// An existing collection is left untouched.
func EnsureSchema(ctx context.Context, db *mongo.Database, collection string) error {
	opts := options.CreateCollection().SetValidator(bson.M{"$jsonSchema": NotificationSchema()})
	err := db.CreateCollection(ctx, collection, opts)
	if err == nil || IsNamespaceExists(err) {
		return nil
	}
	return fmt.Errorf("create collection %s: %w", collection, err)
}

// IsNamespaceExists reports whether err is the "collection already exists" command error.
func IsNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeNamespaceExists
	}
	return false
}

func toBSONArray(values []string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
