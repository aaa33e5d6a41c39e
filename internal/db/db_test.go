package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/config"
	"github.com/milescrape/milescrape/internal/db/models"
)

func TestOpenSQLiteLocksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")

	db, closeDB, err := OpenSQLite(path, logger.Silent)
	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(&models.Scan{}))
	require.True(t, db.Migrator().HasTable(&models.ScanLogEntry{}))
	require.True(t, db.Migrator().HasTable(&models.Lead{}))

	_, _, err = OpenSQLite(path, logger.Silent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, closeDB())

	_, closeAgain, err := OpenSQLite(path, logger.Silent)
	require.NoError(t, err, "lock is released on close")
	require.NoError(t, closeAgain())
}

func TestOpenSQLiteInMemory(t *testing.T) {
	db, closeDB, err := OpenSQLite("file:dbtest?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	defer func() { _ = closeDB() }()

	scan := &models.Scan{ID: models.NewScanID(), Status: models.ScanStatusPending, Params: models.ScanParams{Location: "Austin", RadiusKm: 5}}
	require.NoError(t, db.Create(scan).Error)

	var count int64
	require.NoError(t, db.Model(&models.Scan{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, _, err := Open(config.Database{Driver: "mysql"}, logger.Silent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestSetDefaults(t *testing.T) {
	opts := setDefaults(Options{})
	assert.Equal(t, DefaultHost, opts.Host)
	assert.Equal(t, DefaultPort, opts.Port)
	require.NotNil(t, opts.SSLEnabled)
	assert.False(t, *opts.SSLEnabled)
	assert.Equal(t, logger.Warn, opts.LogLevel)
}
