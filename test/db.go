package test

import (
	"path/filepath"

	gormlogger "gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/internal/db"
	"github.com/milescrape/milescrape/internal/db/repos"
)

// SetupTestDB opens a file backed SQLite store in a temporary directory and migrates it.
func SetupTestDB(s *Suite) {
	s.dbPath = filepath.Join(s.t.TempDir(), "milescrape_test.db")

	gdb, closer, err := db.OpenSQLite(s.dbPath, gormlogger.Silent)
	s.Require().NoError(err, "Failed to open test database")

	s.DB = gdb
	s.Store = repos.NewStore(gdb)
	s.closeDB = closer
}
