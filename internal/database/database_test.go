package database

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholar-ledger-api/internal/config"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.Config{DatabaseDriver: config.DriverSQLite})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range []interface{}{&models.Settings{}, &models.Class{}, &models.Student{}, &models.ScoreRecord{}, &models.ScoreRow{}, &models.FeeHead{}, &models.Payment{}, &models.ActivityLog{}} {
		require.True(t, db.Migrator().HasTable(model))
	}
}

func TestConnectPostgresRequiresDSN(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, client)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client, err = ConnectRedis(context.Background(), "redis://"+mini.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	require.NoError(t, client.Close())

	_, err = ConnectRedis(context.Background(), "://bad")
	require.Error(t, err)
}

func TestConnectNATSDisabledWithoutURL(t *testing.T) {
	conn, err := ConnectNATS("", "test")
	require.NoError(t, err)
	require.Nil(t, conn)
}
