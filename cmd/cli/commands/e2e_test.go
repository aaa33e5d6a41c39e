package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/test"
)

// TestCommandsAgainstServer drives the commands through the real client and an in-process server
func TestCommandsAgainstServer(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	output, err := executeCommand(t, suite.APIClient, "scans", "start", "-l", "Austin, TX", "-m", "funding,launch")
	require.NoError(t, err)

	var started struct {
		ScanID string `json:"scan_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &started))
	require.NotEmpty(t, started.ScanID)
	assert.Equal(t, "pending", started.Status)

	scan := suite.WaitForScan(started.ScanID)
	require.Equal(t, models.ScanStatusCompleted, scan.Status, scan.Error)

	output, err = executeCommand(t, suite.APIClient, "scans", "get", "-i", started.ScanID)
	require.NoError(t, err)
	var got scanOutput
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, []string{"funding", "launch"}, got.Milestones)
	assert.NotEmpty(t, got.Log)

	output, err = executeCommand(t, suite.APIClient, "leads", "list", "--scan-id", started.ScanID)
	require.NoError(t, err)
	var leads leadListOutput
	require.NoError(t, json.Unmarshal([]byte(output), &leads))
	assert.Len(t, leads.Leads, scan.Stats.LeadsCreated)
	for _, lead := range leads.Leads {
		assert.Contains(t, []string{"funding", "launch"}, lead.MilestoneType)
	}

	_, err = executeCommand(t, suite.APIClient, "scans", "cancel", "-i", "scan-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error cancelling scan")

	output, err = executeCommand(t, suite.APIClient, "health")
	require.NoError(t, err)
	assert.Contains(t, output, `"status": "healthy"`)
}
