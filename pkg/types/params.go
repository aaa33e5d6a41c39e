package types

import (
	"net/url"
	"strconv"
)

// ScanListParams are the filters of a scan listing
type ScanListParams struct {
	Status string `json:"status,omitempty"`
	Page   int    `json:"page,omitempty"`
}

// Values encodes the params as query values, skipping zero fields
func (p ScanListParams) Values() url.Values {
	v := url.Values{}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}

// LeadListParams are the filters of a lead listing
type LeadListParams struct {
	ScanID        string `json:"scan_id,omitempty"`
	MilestoneType string `json:"milestone_type,omitempty"`
	Location      string `json:"location,omitempty"`
	MinScore      int    `json:"min_score,omitempty"`
	Sort          string `json:"sort,omitempty"`
	Page          int    `json:"page,omitempty"`
}

// Values encodes the params as query values, skipping zero fields
func (p LeadListParams) Values() url.Values {
	v := url.Values{}
	if p.ScanID != "" {
		v.Set("scan_id", p.ScanID)
	}
	if p.MilestoneType != "" {
		v.Set("milestone_type", p.MilestoneType)
	}
	if p.Location != "" {
		v.Set("location", p.Location)
	}
	if p.MinScore > 0 {
		v.Set("min_score", strconv.Itoa(p.MinScore))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}
