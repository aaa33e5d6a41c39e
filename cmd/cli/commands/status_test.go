package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/api/v1/client/mock"
	"github.com/milescrape/milescrape/pkg/types"
)

func TestStatsCmd(t *testing.T) {
	mockClient := &mock.MockClient{
		GetStatsFn: func(_ context.Context) (models.DashboardStats, error) {
			return models.DashboardStats{
				TotalLeads:      4,
				ScansRun:        3,
				ConversionRate:  133,
				AverageScore:    79,
				LocationsCount:  2,
				MilestoneCounts: map[models.MilestoneType]int64{models.MilestoneFunding: 4},
			}, nil
		},
	}

	output, err := executeCommand(t, mockClient, "stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"total_leads": 4,
		"scans_run": 3,
		"conversion_rate": 133,
		"average_score": 79,
		"locations_count": 2,
		"milestone_counts": {"funding": 4}
	}`, output)
}

func TestHealthCmd(t *testing.T) {
	mockClient := &mock.MockClient{
		HealthCheckFn: func(_ context.Context) (types.HealthResponse, error) {
			return types.HealthResponse{
				Status: "healthy",
				Scans:  services.Health{ActiveScans: 1, QueuedScans: 2, MaxConcurrentScans: 3, Live: true},
			}, nil
		},
	}

	output, err := executeCommand(t, mockClient, "health")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"status": "healthy",
		"scans": {"active_scans": 1, "queued_scans": 2, "max_concurrent_scans": 3, "live": true}
	}`, output)

	mockClient.HealthCheckFn = func(_ context.Context) (types.HealthResponse, error) {
		return types.HealthResponse{}, errors.New("connection refused")
	}
	_, err = executeCommand(t, mockClient, "health")
	assert.EqualError(t, err, "error checking health: connection refused")
}
