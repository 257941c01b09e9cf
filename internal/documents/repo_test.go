package documents

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mustIntent(t *testing.T, title string) *CreateIntent {
	t.Helper()
	intent, err := Create(map[string]any{"title": title, "action": "show"})
	require.NoError(t, err)
	return intent
}

func TestRepositoryCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns ids in order", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewRepository(mt.Coll, 0)

		ids, err := repo.Create(context.Background(), mustIntent(t, "a"), mustIntent(t, "b"))
		require.NoError(mt, err)
		require.Len(mt, ids, 2)
		assert.True(mt, ValidID(ids[0]))
		assert.NotEqual(mt, ids[0], ids[1])
	})

	mt.Run("store failure is a dependency error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 11000, Name: "DuplicateKey", Message: "duplicate key",
		}))
		repo := NewRepository(mt.Coll, 0)

		_, err := repo.Create(context.Background(), mustIntent(t, "a"))
		require.Error(mt, err)
		assert.True(mt, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	})

	mt.Run("empty batch", func(mt *mtest.T) {
		_, err := NewRepository(mt.Coll, 0).Create(context.Background())
		assert.True(mt, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestRepositoryGetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "LA.Notifications"

	mt.Run("found", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "title", Value: "hello"},
			{Key: "action", Value: bson.A{"show"}},
			{Key: "url", Value: "https://example.com"},
		}))

		rec, err := NewRepository(mt.Coll, 0).GetByID(context.Background(), oid.Hex())
		require.NoError(mt, err)
		require.NotNil(mt, rec)
		assert.Equal(mt, "hello", rec.Title)
		assert.Equal(mt, "https://example.com", rec.ExtraArgs["url"])
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		rec, err := NewRepository(mt.Coll, 0).GetByID(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		assert.Nil(mt, rec)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		_, err := NewRepository(mt.Coll, 0).GetByID(context.Background(), "not-an-id")
		assert.True(mt, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestRepositoryFindByIDsAndListIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "LA.Notifications"

	mt.Run("find by ids", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: a}, {Key: "title", Value: "a"}, {Key: "action", Value: bson.A{"show"}}},
			bson.D{{Key: "_id", Value: b}, {Key: "title", Value: "b"}, {Key: "action", Value: bson.A{"remind"}}},
		))

		recs, err := NewRepository(mt.Coll, 0).FindByIDs(context.Background(), []string{a.Hex(), b.Hex()})
		require.NoError(mt, err)
		require.Len(mt, recs, 2)
		assert.Equal(mt, a.Hex(), recs[0].ID)
		assert.Equal(mt, "b", recs[1].Title)
	})

	mt.Run("list ids", func(mt *mtest.T) {
		a := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: a}},
		))

		ids, err := NewRepository(mt.Coll, 0).ListIDs(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{a}, ids)
	})

	mt.Run("get by filter with limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "x"}},
		))

		raws, err := NewRepository(mt.Coll, 0).GetByFilter(context.Background(),
			bson.M{"title": "x"}, bson.M{"title": 1}, 1)
		require.NoError(mt, err)
		require.Len(mt, raws, 1)
		assert.Equal(mt, "x", raws[0]["title"])
	})
}

func TestRepositoryDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reports deleted count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := NewRepository(mt.Coll, 0).Delete(context.Background(),
			[]string{primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})

	mt.Run("zero matches is not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		n, err := NewRepository(mt.Coll, 0).Delete(context.Background(), []string{primitive.NewObjectID().Hex()})
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("malformed id touches nothing", func(mt *mtest.T) {
		n, err := NewRepository(mt.Coll, 0).Delete(context.Background(), []string{"zzz"})
		require.Error(mt, err)
		assert.Zero(mt, n)
		assert.True(mt, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	mt.Run("empty input", func(mt *mtest.T) {
		n, err := NewRepository(mt.Coll, 0).Delete(context.Background(), nil)
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})
}
