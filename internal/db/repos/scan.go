package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/milescrape/milescrape/internal/db/models"
)

// Store handles database operations for scans, scan logs and leads
type Store struct {
	db *gorm.DB
}

// NewStore creates a new instance of Store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db: db,
	}
}

// CreateScan inserts a new scan record
func (s *Store) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = models.NewScanID()
	}
	if scan.Status == "" {
		scan.Status = models.ScanStatusPending
	}
	if err := s.db.WithContext(ctx).Omit("Log").Create(scan).Error; err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}
	return nil
}

// GetScan retrieves a scan by id with its log in insertion order
func (s *Store) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	var scan models.Scan
	err := s.db.WithContext(ctx).
		Preload("Log", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", id).
		First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("scan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}
	return &scan, nil
}

// GetScanStatus reads only the status column of a scan
func (s *Store) GetScanStatus(ctx context.Context, id string) (models.ScanStatus, error) {
	var scan models.Scan
	err := s.db.WithContext(ctx).Select("id", "status").Where("id = ?", id).First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("scan %s: %w", id, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get status of scan %s: %w", id, err)
	}
	return scan.Status, nil
}

// SaveProgress writes the worker owned columns of update, but only while the
// scan is still in the expected status. A scan that moved on is reported as
// a StatusConflictError and left untouched.
func (s *Store) SaveProgress(ctx context.Context, id string, expected models.ScanStatus, update *models.ScanUpdate) error {
	cols := update.Columns()
	cols["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).
		Model(&models.Scan{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to save progress for scan %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.conflict(ctx, id)
	}
	return nil
}

// TransitionStatus moves the scan to status to if its current status is one of
// from, writing update in the same statement
func (s *Store) TransitionStatus(ctx context.Context, id string, from []models.ScanStatus, to models.ScanStatus, update *models.ScanUpdate) error {
	if len(from) == 0 {
		return fmt.Errorf("transition of scan %s to %s: no source status given", id, to)
	}
	cols := update.Columns()
	cols[models.ScanStatusField] = to
	cols["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).
		Model(&models.Scan{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to move scan %s to %s: %w", id, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.conflict(ctx, id)
	}
	return nil
}

// AppendLog adds an entry to the end of the scan's log
func (s *Store) AppendLog(ctx context.Context, id string, entry models.ScanLogEntry) error {
	entry.ID = 0
	entry.ScanID = id
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append log for scan %s: %w", id, err)
	}
	return nil
}

// ListActiveScans returns the pending and in progress scans, oldest first
func (s *Store) ListActiveScans(ctx context.Context) ([]models.Scan, error) {
	var scans []models.Scan
	err := s.db.WithContext(ctx).
		Where("status IN ?", []models.ScanStatus{models.ScanStatusPending, models.ScanStatusInProgress}).
		Order("created_at ASC").
		Find(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active scans: %w", err)
	}
	return scans, nil
}

// ListScans returns scans newest first, optionally filtered by status
func (s *Store) ListScans(ctx context.Context, opts *models.ListOptions) ([]models.Scan, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	opts.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Scan{})
	if opts.ScanStatus != nil {
		query = query.Where("status = ?", *opts.ScanStatus)
	}

	var scans []models.Scan
	err := query.
		Order("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}

// conflict explains why a guarded update matched no row
func (s *Store) conflict(ctx context.Context, id string) error {
	var scan models.Scan
	err := s.db.WithContext(ctx).Select("id", "status").Where("id = ?", id).First(&scan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("scan %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to read scan %s: %w", id, err)
	}
	return &StatusConflictError{ScanID: id, Current: scan.Status}
}
