package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Field names for scan model
const (
	// ScanStatusField is the column holding the scan status
	ScanStatusField = "status"
	// ScanIDPrefix prefixes every generated scan id
	ScanIDPrefix = "scan-"
)

// ScanStatus represents the current state of a scan
type ScanStatus string

// Scan status constants
const (
	// ScanStatusPending indicates the scan is created and waiting for an execution slot
	ScanStatusPending ScanStatus = "pending"
	// ScanStatusInProgress indicates a worker is processing the scan
	ScanStatusInProgress ScanStatus = "in_progress"
	// ScanStatusCompleted indicates every discovered company was processed
	ScanStatusCompleted ScanStatus = "completed"
	// ScanStatusFailed indicates the scan stopped on a fatal error
	ScanStatusFailed ScanStatus = "failed"
	// ScanStatusCancelled indicates the scan was stopped on request
	ScanStatusCancelled ScanStatus = "cancelled"
)

// String returns the string representation of the scan status
func (s ScanStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed from s
func (s ScanStatus) IsTerminal() bool {
	switch s {
	case ScanStatusCompleted, ScanStatusFailed, ScanStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseScanStatus converts a string to a ScanStatus type
func ParseScanStatus(str string) (ScanStatus, error) {
	switch str {
	case string(ScanStatusPending):
		return ScanStatusPending, nil
	case string(ScanStatusInProgress):
		return ScanStatusInProgress, nil
	case string(ScanStatusCompleted):
		return ScanStatusCompleted, nil
	case string(ScanStatusFailed):
		return ScanStatusFailed, nil
	case string(ScanStatusCancelled):
		return ScanStatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid scan status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for ScanStatus
func (s *ScanStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseScanStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// ScanParams are the caller supplied parameters of a scan. They never change after creation.
type ScanParams struct {
	Location        string                             `json:"location" gorm:"not null"`
	RadiusKm        float64                            `json:"radius_km" gorm:"not null"`
	LookbackDays    int                                `json:"lookback_days" gorm:"not null"`
	MilestoneTypes  datatypes.JSONSlice[MilestoneType] `json:"milestone_types"`
	SeniorityLevels datatypes.JSONSlice[Seniority]     `json:"seniority_levels,omitempty"`
	CompanySizeMin  *int                               `json:"company_size_min,omitempty"`
	CompanySizeMax  *int                               `json:"company_size_max,omitempty"`
}

// AllowsMilestone reports whether the scan asked for milestones of type m
func (p ScanParams) AllowsMilestone(m MilestoneType) bool {
	for _, t := range p.MilestoneTypes {
		if t == m {
			return true
		}
	}
	return false
}

// ScanStats are the running counters of a scan
type ScanStats struct {
	CompaniesDiscovered int `json:"companies_discovered" gorm:"not null;default:0"`
	PostsExamined       int `json:"posts_examined" gorm:"not null;default:0"`
	LeadsCreated        int `json:"leads_created" gorm:"not null;default:0"`
}

// Scan is the durable record of one scan job
type Scan struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	Status    ScanStatus     `json:"status" gorm:"not null;index"`
	Params    ScanParams     `json:"parameters" gorm:"embedded"`
	Progress  int            `json:"progress" gorm:"not null;default:0"`
	Stats     ScanStats      `json:"stats" gorm:"embedded"`
	Error     string         `json:"error,omitempty" gorm:"type:text"`
	Log       []ScanLogEntry `json:"log,omitempty" gorm:"foreignKey:ScanID"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewScanID returns a fresh opaque scan id
func NewScanID() string {
	return ScanIDPrefix + uuid.NewString()
}

// ScanLogEntry is one timestamped line in a scan's append-only log
type ScanLogEntry struct {
	ID        uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	ScanID    string    `json:"-" gorm:"not null;index;size:64"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
}

// ScanUpdate collects the worker owned columns to write back to a scan.
// Only the columns that were set are written.
type ScanUpdate struct {
	progress *int
	stats    *ScanStats
	started  *time.Time
	ended    *time.Time
	errMsg   *string
}

// NewScanUpdate returns an empty update
func NewScanUpdate() *ScanUpdate {
	return &ScanUpdate{}
}

// WithProgress sets the progress percentage
func (u *ScanUpdate) WithProgress(p int) *ScanUpdate {
	u.progress = &p
	return u
}

// WithStats sets all counters
func (u *ScanUpdate) WithStats(s ScanStats) *ScanUpdate {
	u.stats = &s
	return u
}

// WithStartedAt sets the start timestamp
func (u *ScanUpdate) WithStartedAt(t time.Time) *ScanUpdate {
	u.started = &t
	return u
}

// WithEndedAt sets the end timestamp
func (u *ScanUpdate) WithEndedAt(t time.Time) *ScanUpdate {
	u.ended = &t
	return u
}

// WithError sets the failure message
func (u *ScanUpdate) WithError(msg string) *ScanUpdate {
	u.errMsg = &msg
	return u
}

// Columns returns the column to value map to write
func (u *ScanUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u == nil {
		return cols
	}
	if u.progress != nil {
		cols["progress"] = *u.progress
	}
	if u.stats != nil {
		cols["companies_discovered"] = u.stats.CompaniesDiscovered
		cols["posts_examined"] = u.stats.PostsExamined
		cols["leads_created"] = u.stats.LeadsCreated
	}
	if u.started != nil {
		cols["started_at"] = *u.started
	}
	if u.ended != nil {
		cols["ended_at"] = *u.ended
	}
	if u.errMsg != nil {
		cols["error"] = *u.errMsg
	}
	return cols
}

// Apply copies the set fields onto a working copy of the scan
func (u *ScanUpdate) Apply(s *Scan) {
	if u == nil || s == nil {
		return
	}
	if u.progress != nil {
		s.Progress = *u.progress
	}
	if u.stats != nil {
		s.Stats = *u.stats
	}
	if u.started != nil {
		t := *u.started
		s.StartedAt = &t
	}
	if u.ended != nil {
		t := *u.ended
		s.EndedAt = &t
	}
	if u.errMsg != nil {
		s.Error = *u.errMsg
	}
}
