package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// leadNamespace is the fixed namespace for name based lead ids
var leadNamespace = uuid.MustParse("6f1c2a4e-8d0b-5c3e-9a71-4b2d0e5f7c18")

// Lead is a persisted milestone finding that passed scoring and filtering.
// Leads are written once and never updated.
type Lead struct {
	ID            string        `json:"id" gorm:"primaryKey;size:36"`
	ScanID        string        `json:"scan_id" gorm:"not null;size:64;uniqueIndex:idx_lead_scan_seq"`
	Sequence      int           `json:"sequence" gorm:"not null;uniqueIndex:idx_lead_scan_seq"`
	CompanyName   string        `json:"company_name" gorm:"not null;index"`
	MilestoneType MilestoneType `json:"milestone_type" gorm:"not null;index"`
	Score         int           `json:"score" gorm:"not null;index"`
	SourceText    string        `json:"source_text" gorm:"type:text"`
	SourceURL     string        `json:"source_url"`
	Location      string        `json:"location" gorm:"index"`
	Seniority     Seniority     `json:"seniority"`
	DiscoveredAt  time.Time     `json:"discovered_at" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at"`
}

// LeadID derives the id of the lead with the given sequence number in a scan.
// Replaying the same unit of work yields the same id.
func LeadID(scanID string, sequence int) string {
	return uuid.NewSHA1(leadNamespace, []byte(scanID+"/"+strconv.Itoa(sequence))).String()
}
