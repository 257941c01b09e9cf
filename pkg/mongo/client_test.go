package mongo

import (
	"context"
	"testing"

	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestEnsureSchema(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, EnsureSchema(context.Background(), mt.DB, "Notifications"))
	})

	mt.Run("existing collection is fine", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    48,
			Name:    "NamespaceExists",
			Message: "collection already exists",
		}))
		require.NoError(mt, EnsureSchema(context.Background(), mt.DB, "Notifications"))
	})

	mt.Run("other errors surface", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))
		err := EnsureSchema(context.Background(), mt.DB, "Notifications")
		require.Error(mt, err)
		assert.False(mt, IsNamespaceExists(err))
	})
}

func TestNotificationSchemaRequiresTitleAndAction(t *testing.T) {
	schema := NotificationSchema()
	assert.Equal(t, bson.A{"title", "action"}, schema["required"])

	props := schema["properties"].(bson.M)
	action := props["action"].(bson.M)
	assert.Equal(t, 1, action["minItems"])
	assert.Equal(t, true, action["uniqueItems"])
	assert.Equal(t, bson.A{"open_url", "remind", "show"}, action["items"].(bson.M)["enum"])
}

func TestNewRequiresURI(t *testing.T) {
	_, err := New(context.Background(), config.MongoConfig{Database: "LA", Collection: "Notifications"}, nil)
	require.Error(t, err)
}
