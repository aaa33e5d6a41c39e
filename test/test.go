// Package test provides integration testing infrastructure for milescrape
package test

import (
	"context"
	"time"

	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/internal/sources"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// Option represents a configuration option for the test suite.
type Option func(*Suite)

// WithTimeout returns an option that sets the suite timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Suite) {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.ctx, s.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithSources returns an option that replaces the mock candidate sources.
func WithSources(set *sources.Set) Option {
	return func(s *Suite) {
		s.Sources = set
	}
}

// WithOrchestratorOptions returns an option that sets the orchestrator limits.
func WithOrchestratorOptions(opts services.Options) Option {
	return func(s *Suite) {
		s.orchestratorOpts = opts
	}
}

// WithCleanupFunc returns an option that adds a cleanup function to be
// called when the suite is cleaned up.
func WithCleanupFunc(cleanup func()) Option {
	return func(s *Suite) {
		oldCleanup := s.extraCleanup
		s.extraCleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}
