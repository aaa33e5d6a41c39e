package models

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing API call
	DefaultLimit = 50
	// MaxLimit caps the limit a caller may ask for
	MaxLimit = 1000
)

// LeadSort selects the ordering of lead listings
type LeadSort string

const (
	// LeadSortRecent orders leads by discovery time, newest first
	LeadSortRecent LeadSort = "recent"
	// LeadSortScore orders leads by score, highest first
	LeadSortScore LeadSort = "score"
)

// ListOptions represents pagination and filtering options for list operations
type ListOptions struct {
	Limit  int `json:"limit"`  // Number of items to return
	Offset int `json:"offset"` // Number of items to skip

	// Scan filters
	ScanStatus *ScanStatus `json:"scan_status,omitempty"`

	// Lead filters
	ScanID        string        `json:"scan_id,omitempty"`
	MilestoneType MilestoneType `json:"milestone_type,omitempty"`
	Location      string        `json:"location,omitempty"`
	MinScore      int           `json:"min_score,omitempty"`
	Sort          LeadSort      `json:"sort,omitempty"`
}

// Normalize applies the default and maximum limit and clamps a negative offset
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Sort == "" {
		o.Sort = LeadSortRecent
	}
}
