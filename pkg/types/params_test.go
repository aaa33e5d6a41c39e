package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanListParamsValues(t *testing.T) {
	assert.Empty(t, ScanListParams{}.Values())
	assert.Equal(t, "page=2&status=completed", ScanListParams{Status: "completed", Page: 2}.Values().Encode())
}

func TestLeadListParamsValues(t *testing.T) {
	assert.Empty(t, LeadListParams{}.Values())

	v := LeadListParams{
		ScanID:        "scan-1",
		MilestoneType: "funding",
		Location:      "Austin",
		MinScore:      70,
		Sort:          "score",
		Page:          3,
	}.Values()
	assert.Equal(t, "scan-1", v.Get("scan_id"))
	assert.Equal(t, "funding", v.Get("milestone_type"))
	assert.Equal(t, "Austin", v.Get("location"))
	assert.Equal(t, "70", v.Get("min_score"))
	assert.Equal(t, "score", v.Get("sort"))
	assert.Equal(t, "3", v.Get("page"))
}
