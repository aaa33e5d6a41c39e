// This file is used to create or update the database schema
// How to run:
// go run cmd/migrate/main.go                    # Migrate the database named by the DB_* variables
// go run cmd/migrate/main.go -driver sqlite     # Migrate the sqlite file at DB_SQLITE_PATH
// go run cmd/migrate/main.go -retries 10        # Wait longer for the database to come up
package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/config"
	"github.com/milescrape/milescrape/internal/db"
	"github.com/milescrape/milescrape/internal/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatalf("Error loading .env file: %v", err)
	}
	logger.InitializeAndConfigure()

	cfg := config.Load()

	var (
		driver    = flag.String("driver", cfg.Database.Driver, "Database driver (postgres or sqlite)")
		retries   = flag.Int("retries", 5, "Number of connection retries")
		retryWait = flag.Duration("retry-wait", 3*time.Second, "Wait time between retries")
	)
	flag.Parse()
	cfg.Database.Driver = *driver

	var err error
	for attempt := 1; attempt <= *retries; attempt++ {
		var closeDB db.Closer
		// Open runs the migrations once connected
		_, closeDB, err = db.Open(cfg.Database, gormlogger.Warn)
		if err == nil {
			if cerr := closeDB(); cerr != nil {
				logger.Warnf("Failed to close database: %v", cerr)
			}
			logger.Infof("Database schema is up to date (driver %s)", cfg.Database.Driver)
			return
		}
		logger.Warnf("Migration attempt %d/%d failed: %v", attempt, *retries, err)
		if attempt < *retries {
			time.Sleep(*retryWait)
		}
	}
	logger.Fatalf("Migration failed: %v", err)
}
