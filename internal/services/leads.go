package services

import (
	"context"
	"errors"
	"math"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/db/repos"
)

// Leads answers the read-only queries over scans and leads
type Leads struct {
	store LeadStore
}

// NewLeads creates a new query service
func NewLeads(store LeadStore) *Leads {
	return &Leads{store: store}
}

// ListScans lists scans newest first
func (l *Leads) ListScans(ctx context.Context, opts *models.ListOptions) ([]models.Scan, error) {
	return l.store.ListScans(ctx, opts)
}

// ListActiveScans lists pending and running scans, oldest first
func (l *Leads) ListActiveScans(ctx context.Context) ([]models.Scan, error) {
	return l.store.ListActiveScans(ctx)
}

// ListLeads lists leads matching opts
func (l *Leads) ListLeads(ctx context.Context, opts *models.ListOptions) ([]models.Lead, error) {
	return l.store.ListLeads(ctx, opts)
}

// GetLead retrieves a lead by id
func (l *Leads) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := l.store.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, &NotFoundError{Kind: "lead", ID: id}
		}
		return nil, err
	}
	return lead, nil
}

// Stats returns the dashboard counters. The conversion rate is leads per
// scan in percent, rounded to a whole number.
func (l *Leads) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := l.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.ScansRun > 0 {
		stats.ConversionRate = math.Round(float64(stats.TotalLeads) / float64(stats.ScansRun) * 100)
	}
	stats.AverageScore = math.Round(stats.AverageScore*10) / 10
	return stats, nil
}
