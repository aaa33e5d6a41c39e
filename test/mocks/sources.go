package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/sources"
)

// StaticDiscovery returns the same companies for every location
type StaticDiscovery struct {
	Companies []sources.Company
}

// FindCompanies implements sources.Discovery
func (d StaticDiscovery) FindCompanies(ctx context.Context, _ string, _ float64) ([]sources.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Companies, nil
}

// GatedExtractor holds every call until Release is called or the call's context ends
type GatedExtractor struct {
	Inner sources.Extractor

	gate    chan struct{}
	once    sync.Once
	waiting atomic.Int32
}

// NewGatedExtractor wraps inner behind a closed gate
func NewGatedExtractor(inner sources.Extractor) *GatedExtractor {
	return &GatedExtractor{
		Inner: inner,
		gate:  make(chan struct{}),
	}
}

// Release opens the gate for all current and future calls
func (g *GatedExtractor) Release() {
	g.once.Do(func() { close(g.gate) })
}

// Waiting reports how many calls are parked at the gate
func (g *GatedExtractor) Waiting() int {
	return int(g.waiting.Load())
}

// FindMilestones implements sources.Extractor
func (g *GatedExtractor) FindMilestones(ctx context.Context, company sources.Company, lookbackDays int, allowed []models.MilestoneType) ([]sources.Candidate, error) {
	g.waiting.Add(1)
	select {
	case <-g.gate:
		g.waiting.Add(-1)
	case <-ctx.Done():
		g.waiting.Add(-1)
		return nil, ctx.Err()
	}
	return g.Inner.FindMilestones(ctx, company, lookbackDays, allowed)
}
