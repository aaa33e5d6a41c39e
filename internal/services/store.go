package services

import (
	"context"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/db/repos"
)

// ScanStore is the durable job store the orchestrator and its workers use
type ScanStore interface {
	CreateScan(ctx context.Context, scan *models.Scan) error
	GetScan(ctx context.Context, id string) (*models.Scan, error)
	GetScanStatus(ctx context.Context, id string) (models.ScanStatus, error)
	SaveProgress(ctx context.Context, id string, expected models.ScanStatus, update *models.ScanUpdate) error
	TransitionStatus(ctx context.Context, id string, from []models.ScanStatus, to models.ScanStatus, update *models.ScanUpdate) error
	AppendLog(ctx context.Context, id string, entry models.ScanLogEntry) error
	CreateLead(ctx context.Context, lead *models.Lead) (bool, error)
	ListActiveScans(ctx context.Context) ([]models.Scan, error)
}

// LeadStore is the read side used by the query service
type LeadStore interface {
	ListScans(ctx context.Context, opts *models.ListOptions) ([]models.Scan, error)
	ListActiveScans(ctx context.Context) ([]models.Scan, error)
	ListLeads(ctx context.Context, opts *models.ListOptions) ([]models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

var (
	_ ScanStore = (*repos.Store)(nil)
	_ LeadStore = (*repos.Store)(nil)
)
