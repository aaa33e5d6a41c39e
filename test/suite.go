package test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/milescrape/milescrape/internal/db"
	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/db/repos"
	"github.com/milescrape/milescrape/internal/events"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/internal/sources"
	"github.com/milescrape/milescrape/pkg/api/v1/client"
)

// shutdownTimeout bounds how long cleanup waits for scan workers
const shutdownTimeout = 5 * time.Second

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - File backed SQLite database
//   - Scan orchestrator and event bus
//   - Real API server
//   - Real API client
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Client components
	APIClient client.Client

	// Database components
	DB      *gorm.DB
	Store   *repos.Store
	dbPath  string
	closeDB db.Closer

	// Scan components
	Sources          *sources.Set
	Bus              *events.Bus
	Orchestrator     *services.Orchestrator
	Leads            *services.Leads
	orchestratorOpts services.Options

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup
	extraCleanup func()
	cleanupOnce  sync.Once
}

// NewSuite creates a new test suite with the given options.
// The suite must be cleaned up after use by calling Cleanup; it is also
// registered with t.Cleanup so a forgotten call does not leak workers.
func NewSuite(t *testing.T, opts ...Option) *Suite {
	t.Helper()

	// Create suite with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	s := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
		Sources: &sources.Set{
			Discovery: sources.MockDiscovery{},
			Extractor: sources.MockExtractor{},
			Analyzer:  sources.KeywordAnalyzer{},
		},
		orchestratorOpts: services.Options{
			RetryBackoff: time.Millisecond,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	SetupTestDB(s)
	SetupOrchestrator(s)
	SetupServer(s)

	t.Cleanup(s.Cleanup)
	return s
}

// Cleanup tears down the suite: server first, then workers, then the database.
func (s *Suite) Cleanup() {
	s.cleanupOnce.Do(func() {
		if s.Server != nil {
			s.Server.Close()
		}

		if s.Orchestrator != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := s.Orchestrator.Shutdown(ctx); err != nil {
				s.t.Errorf("orchestrator shutdown: %v", err)
			}
			cancel()
		}

		if s.cancelFunc != nil {
			s.cancelFunc()
		}

		if s.closeDB != nil {
			if err := s.closeDB(); err != nil {
				s.t.Errorf("closing database: %v", err)
			}
		}

		if s.extraCleanup != nil {
			s.extraCleanup()
		}
	})
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
// This is a convenience method to avoid passing t around.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// WaitForScan waits until the scan is terminal and its worker has exited, then
// returns the final snapshot.
func (s *Suite) WaitForScan(id string) models.Scan {
	s.t.Helper()
	return s.WaitForStatus(id, func(status models.ScanStatus) bool { return status.IsTerminal() })
}

// WaitForStatus waits until the scan status satisfies match. For terminal
// statuses it also waits for the worker to leave the registry.
func (s *Suite) WaitForStatus(id string, match func(models.ScanStatus) bool) models.Scan {
	s.t.Helper()

	var scan models.Scan
	s.Require().Eventually(func() bool {
		got, err := s.APIClient.GetScan(s.ctx, id)
		if err != nil || !match(got.Status) {
			return false
		}
		if got.Status.IsTerminal() && s.Orchestrator.Registry().IsActive(id) {
			return false
		}
		scan = got
		return true
	}, 10*time.Second, 10*time.Millisecond, "scan %s did not reach the expected status", id)

	if !scan.Status.IsTerminal() {
		return scan
	}

	// Re-read so log lines appended on the way out are included
	final, err := s.APIClient.GetScan(s.ctx, id)
	s.Require().NoError(err)
	return final
}
