package models

// DashboardStats summarises the leads and scans in the store
type DashboardStats struct {
	TotalLeads      int64                   `json:"total_leads"`
	ScansRun        int64                   `json:"scans_run"`
	ConversionRate  float64                 `json:"conversion_rate"` // leads per scan, in percent
	AverageScore    float64                 `json:"average_score"`
	LocationsCount  int64                   `json:"locations_count"`
	MilestoneCounts map[MilestoneType]int64 `json:"milestone_counts"`
}
