package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milescrape/milescrape/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	ctx   context.Context
	store *Store
}

func (s *DBRepositoryTestSuite) SetupTest() {
	// A uniquely named shared memory database per test keeps tests isolated
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)

	// Run migrations
	err = db.AutoMigrate(&models.Scan{}, &models.ScanLogEntry{}, &models.Lead{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.store = NewStore(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestScan(status models.ScanStatus) *models.Scan {
	scan := &models.Scan{
		Status: status,
		Params: models.ScanParams{
			Location:       "Austin, TX",
			RadiusKm:       25,
			LookbackDays:   30,
			MilestoneTypes: []models.MilestoneType{models.MilestoneFunding, models.MilestoneAward},
		},
	}
	s.Require().NoError(s.store.CreateScan(s.ctx, scan))
	return scan
}

func (s *DBRepositoryTestSuite) testLead(scanID string, seq int) *models.Lead {
	return &models.Lead{
		ScanID:        scanID,
		Sequence:      seq,
		CompanyName:   fmt.Sprintf("Company %d", seq),
		MilestoneType: models.MilestoneFunding,
		Score:         70 + seq,
		SourceText:    "Raised a Series A",
		SourceURL:     "https://example.com/news",
		Location:      "Austin, TX",
		Seniority:     models.SeniorityUnknown,
		DiscoveredAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Hour),
	}
}
