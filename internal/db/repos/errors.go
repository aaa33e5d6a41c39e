// Package repos implements the durable scan and lead store on top of gorm
package repos

import (
	"errors"
	"fmt"

	"github.com/milescrape/milescrape/internal/db/models"
)

var (
	// ErrNotFound is returned when the scan or lead does not exist
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict is returned when a guarded update finds the scan in an unexpected status
	ErrStatusConflict = errors.New("scan status conflict")
	// ErrScanNotActive is returned when a lead is written for a scan that is not in progress
	ErrScanNotActive = errors.New("scan is not in progress")
)

// StatusConflictError carries the status that made a guarded update fail
type StatusConflictError struct {
	ScanID  string
	Current models.ScanStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("scan %s is %s: %s", e.ScanID, e.Current, ErrStatusConflict)
}

// Is makes errors.Is(err, ErrStatusConflict) match
func (e *StatusConflictError) Is(target error) bool {
	return target == ErrStatusConflict
}
