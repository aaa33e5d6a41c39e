package test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/milescrape/milescrape/internal/app"
	"github.com/milescrape/milescrape/internal/events"
	"github.com/milescrape/milescrape/internal/scoring"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/api/v1/client"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// SetupOrchestrator creates the event bus, the orchestrator and the lead query service
func SetupOrchestrator(s *Suite) {
	s.Bus = events.NewBus(events.EventChannelSize)
	s.Bus.Start(s.ctx)

	s.Orchestrator = services.NewOrchestrator(
		s.Store,
		s.Sources,
		scoring.NewEngine(scoring.DefaultConfig()),
		s.Bus,
		s.orchestratorOpts,
	)
	s.Leads = services.NewLeads(s.Store)
}

// SetupServer configures the suite with a real API server and client
func SetupServer(s *Suite) {
	s.App = app.New(s.Orchestrator, s.Leads)

	// Create test server using adaptor to convert Fiber app to http.Handler
	s.Server = httptest.NewServer(adaptor.FiberApp(s.App))

	// Create API client with test configuration
	apiClient, err := client.NewClient(&client.Options{
		BaseURL: s.Server.URL,
		Timeout: testClientTimeout,
	})
	s.Require().NoError(err, "Failed to create API client")
	s.APIClient = apiClient
}
