package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktsys/nifty50/config"
	"github.com/viktsys/nifty50/models"
)

func TestPostgresDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Name: "bars", SSLMode: "require", TimeZone: "Asia/Kolkata",
	}
	assert.Equal(t,
		"host=db port=5433 user=u password=p dbname=bars sslmode=require TimeZone=Asia/Kolkata",
		PostgresDSN(cfg))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bars.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&models.DailyBar{}))
	assert.True(t, db.Migrator().HasIndex(&models.DailyBar{}, "uidx_date_tic"))
	assert.True(t, db.Migrator().HasIndex(&models.DailyBar{}, "idx_daily_bars_tic_date"))

	// indexes are idempotent
	require.NoError(t, OptimizeIndexes(db))
}

func TestInitDB(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	require.NoError(t, InitDB(config.DatabaseConfig{Driver: "sqlite", Path: dsn}))
	require.NotNil(t, DB)
	assert.NoError(t, Close(DB))
}
