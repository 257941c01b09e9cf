package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists notification bodies in the document store.
type Repository interface {
	GetByFilter(ctx context.Context, filter, projection bson.M, limit int64) ([]bson.M, error)
	GetByID(ctx context.Context, id string) (*StoredRecord, error)
	FindByIDs(ctx context.Context, ids []string) ([]*StoredRecord, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	Create(ctx context.Context, intents ...*CreateIntent) ([]string, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}

type repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewRepository binds a repository to a collection. A zero timeout leaves
// the caller's deadline untouched.
func NewRepository(coll *mongo.Collection, timeout time.Duration) Repository {
	return &repository{coll: coll, timeout: timeout}
}

func (r *repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// GetByFilter returns raw records matching filter. A nil projection returns
// whole records and a limit of zero means no limit.
func (r *repository) GetByFilter(ctx context.Context, filter, projection bson.M, limit int64) ([]bson.M, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find notifications")
	}
	var out []bson.M
	if err := cur.All(ctx, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode notifications")
	}
	return out, nil
}

// GetByID returns nil when no record has the id.
func (r *repository) GetByID(ctx context.Context, id string) (*StoredRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var raw bson.M
	err = r.coll.FindOne(ctx, bson.M{FieldID: oid}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find notification")
	}
	return FromStored(raw), nil
}

// FindByIDs fetches the records for ids in a single query. Records that do
// not exist are absent from the result.
func (r *repository) FindByIDs(ctx context.Context, ids []string) ([]*StoredRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	oids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	raws, err := r.GetByFilter(ctx, bson.M{FieldID: bson.M{"$in": oids}}, nil, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*StoredRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, FromStored(raw))
	}
	return out, nil
}

// ListIDs returns the id of every stored record.
func (r *repository) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{FieldID: 1}))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notification ids")
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode notification ids")
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Create inserts every intent in one ordered batch and returns the new ids
// in input order.
func (r *repository) Create(ctx context.Context, intents ...*CreateIntent) ([]string, error) {
	if len(intents) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no notifications to create")
	}

	docs := make([]interface{}, 0, len(intents))
	ids := make([]string, 0, len(intents))
	for i, intent := range intents {
		if intent == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("notification %d is nil", i))
		}
		oid := primitive.NewObjectID()
		doc := append(bson.D{{Key: FieldID, Value: oid}}, intent.Pairs()...)
		docs = append(docs, doc)
		ids = append(ids, oid.Hex())
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert notifications")
	}
	return ids, nil
}

// Delete removes the records with the given ids and returns how many were
// removed. Any malformed id aborts the call before the store is touched.
func (r *repository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	oids, err := parseIDs(ids)
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{FieldID: bson.M{"$in": oids}})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notifications")
	}
	return res.DeletedCount, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
			fmt.Sprintf("invalid notification id %q", id)).
			WithDetails(map[string]any{"id": id})
	}
	return oid, nil
}

func parseIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := parseID(id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

// ValidID reports whether id is a well formed document id.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
