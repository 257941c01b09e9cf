package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&testModel{}))
	return client
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, client.DB().Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPingAndDialect(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, config.DriverSQLite, client.Dialect())
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "oracle", DSN: "x"}, nil)
	require.Error(t, err)
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	assert.Equal(t, "la.db?_foreign_keys=on", sqliteDSN("la.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "la.db?_fk=1", sqliteDSN("la.db?_fk=1"))
}

func TestConstraintClassification(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.DB().Create(&testModel{Name: "dup"}).Error)
	err := client.DB().Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
	assert.True(t, IsUniqueViolation(err, ""))

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, IsConstraintViolation(fk))
	assert.False(t, IsUniqueViolation(fk, ""))
	assert.False(t, IsConstraintViolation(errors.New("connection refused")))
	assert.False(t, IsConstraintViolation(nil))
}
