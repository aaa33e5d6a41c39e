// Package db provides database connectivity and operations
package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/config"
	"github.com/milescrape/milescrape/internal/db/models"
)

// Database configuration constants
const (
	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName     = "milescrape"
	DefaultSSLEnabled = false

	// DriverPostgres selects the postgres store
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded sqlite store
	DriverSQLite = "sqlite"
)

// ErrLocked is returned when another process holds the sqlite database file
var ErrLocked = errors.New("database file is locked by another process")

// Options represents database connection configuration options
type Options struct {
	Host       string
	User       string
	Password   string
	DBName     string
	Port       int
	SSLEnabled *bool
	LogLevel   logger.LogLevel
}

// Closer releases the database connection and any file lock held for it
type Closer func() error

// Open connects to the store selected by cfg.Driver and runs the migrations
func Open(cfg config.Database, logLevel logger.LogLevel) (*gorm.DB, Closer, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, logLevel)
	case DriverPostgres, "":
		ssl := cfg.SSLEnabled
		db, err := New(Options{
			Host:       cfg.Host,
			User:       cfg.User,
			Password:   cfg.Password,
			DBName:     cfg.Name,
			Port:       cfg.Port,
			SSLEnabled: &ssl,
			LogLevel:   logLevel,
		})
		if err != nil {
			return nil, nil, err
		}
		return db, closerFor(db, nil), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// New creates a new postgres connection with the given options
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)
	sslMode := "disable"
	if opts.SSLEnabled != nil && *opts.SSLEnabled {
		sslMode = "require"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(opts.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a sqlite database at path. File backed databases are guarded
// by an exclusive lock file so two processes never run workers against the same file.
func OpenSQLite(path string, logLevel logger.LogLevel) (*gorm.DB, Closer, error) {
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	var fileLock *flock.Flock
	if !isMemoryPath(path) {
		fileLock = flock.New(path + ".lock")
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to lock %s: %w", path, err)
		}
		if !locked {
			return nil, nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(logLevel))
	if err != nil {
		unlock(fileLock)
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// sqlite allows a single writer; one connection also keeps a shared memory database alive
	sqlDB, err := db.DB()
	if err != nil {
		unlock(fileLock)
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		unlock(fileLock)
		return nil, nil, err
	}
	return db, closerFor(db, fileLock), nil
}

// Migrate creates or updates the scan, scan log and lead tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Scan{},
		&models.ScanLogEntry{},
		&models.Lead{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// IsDuplicateKeyError checks if the given error is a PostgreSQL duplicate key error
func IsDuplicateKeyError(err error) bool {
	return errors.Is(postgres.Dialector{}.Translate(err), gorm.ErrDuplicatedKey)
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	// Configure custom logger to ignore record not found errors
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{Logger: newLogger}
}

func setDefaults(opts Options) Options {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.User == "" {
		opts.User = DefaultUser
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.DBName == "" {
		opts.DBName = DefaultDBName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.SSLEnabled == nil {
		sslMode := DefaultSSLEnabled
		opts.SSLEnabled = &sslMode
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return opts
}

func isMemoryPath(path string) bool {
	return path == "" || strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func unlock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

func closerFor(db *gorm.DB, fl *flock.Flock) Closer {
	return func() error {
		defer unlock(fl)
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}
