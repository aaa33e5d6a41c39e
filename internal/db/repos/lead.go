package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milescrape/milescrape/internal/db/models"
)

// CreateLead inserts the lead unless a lead with the same id already exists.
// The owning scan must exist and be in progress, checked in the same transaction.
// created is false when the insert was ignored as a replay.
func (s *Store) CreateLead(ctx context.Context, lead *models.Lead) (created bool, err error) {
	if lead.ScanID == "" {
		return false, fmt.Errorf("lead has no scan id")
	}
	if lead.ID == "" {
		lead.ID = models.LeadID(lead.ScanID, lead.Sequence)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scan models.Scan
		// FOR SHARE holds off a concurrent cancel until the lead is committed; sqlite ignores it
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "status").
			Where("id = ?", lead.ScanID).
			First(&scan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("scan %s: %w", lead.ScanID, ErrNotFound)
			}
			return err
		}
		if scan.Status != models.ScanStatusInProgress {
			return fmt.Errorf("scan %s is %s: %w", lead.ScanID, scan.Status, ErrScanNotActive)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(lead)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to create lead: %w", err)
	}
	return created, nil
}

// GetLead retrieves a lead by id
func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lead %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	return &lead, nil
}

// ListLeads returns leads matching the filters in opts
func (s *Store) ListLeads(ctx context.Context, opts *models.ListOptions) ([]models.Lead, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Lead{})
	if opts.ScanID != "" {
		query = query.Where("scan_id = ?", opts.ScanID)
	}
	if opts.MilestoneType != "" {
		query = query.Where("milestone_type = ?", opts.MilestoneType)
	}
	if opts.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(opts.Location)+"%")
	}
	if opts.MinScore > 0 {
		query = query.Where("score >= ?", opts.MinScore)
	}

	switch opts.Sort {
	case models.LeadSortScore:
		query = query.Order("score DESC").Order("discovered_at DESC")
	default:
		query = query.Order("discovered_at DESC").Order("score DESC")
	}

	var leads []models.Lead
	if err := query.Order("id ASC").Limit(opts.Limit).Offset(opts.Offset).Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// CountLeadsForScan returns the number of persisted leads of a scan
func (s *Store) CountLeadsForScan(ctx context.Context, scanID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Lead{}).Where("scan_id = ?", scanID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads of scan %s: %w", scanID, err)
	}
	return n, nil
}

// Stats aggregates the dashboard counters. ConversionRate is left for the caller.
func (s *Store) Stats(ctx context.Context) (*models.DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &models.DashboardStats{MilestoneCounts: map[models.MilestoneType]int64{}}

	if err := db.Model(&models.Lead{}).Count(&stats.TotalLeads).Error; err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	if err := db.Model(&models.Scan{}).Count(&stats.ScansRun).Error; err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	if err := db.Model(&models.Lead{}).
		Where("location <> ''").
		Distinct("location").
		Count(&stats.LocationsCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count locations: %w", err)
	}

	var avg struct{ Avg float64 }
	if err := db.Model(&models.Lead{}).Select("COALESCE(AVG(score), 0) AS avg").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}
	stats.AverageScore = avg.Avg

	var rows []struct {
		MilestoneType models.MilestoneType
		Count         int64
	}
	if err := db.Model(&models.Lead{}).
		Select("milestone_type, COUNT(*) AS count").
		Group("milestone_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count milestones: %w", err)
	}
	for _, r := range rows {
		stats.MilestoneCounts[r.MilestoneType] = r.Count
	}
	return stats, nil
}
