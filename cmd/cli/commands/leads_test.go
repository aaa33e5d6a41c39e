package commands

import (
	"context"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/api/v1/client/mock"
	"github.com/milescrape/milescrape/pkg/types"
)

func testLead() models.Lead {
	return models.Lead{
		ID:            "lead-1",
		ScanID:        "scan-1",
		Sequence:      1,
		CompanyName:   "Acme Robotics",
		MilestoneType: models.MilestoneFunding,
		Score:         85,
		SourceText:    "Acme Robotics raises $20M Series B",
		SourceURL:     "https://acme.example.com/news",
		Location:      "Austin, TX",
		Seniority:     models.SeniorityExecutive,
		DiscoveredAt:  testTime,
	}
}

func TestListLeadsCmd(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantParams types.LeadListParams
	}{
		{
			name:       "defaults",
			args:       []string{"leads", "list"},
			wantParams: types.LeadListParams{Sort: "recent", Page: 1},
		},
		{
			name: "all filters",
			args: []string{
				"leads", "list", "--scan-id", "scan-1", "-m", "funding", "-l", "Austin",
				"--min-score", "70", "--sort", "score", "-g", "3",
			},
			wantParams: types.LeadListParams{
				ScanID:        "scan-1",
				MilestoneType: "funding",
				Location:      "Austin",
				MinScore:      70,
				Sort:          "score",
				Page:          3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mock.MockClient{
				ListLeadsFn: func(_ context.Context, _ types.LeadListParams) ([]models.Lead, error) {
					return []models.Lead{testLead()}, nil
				},
			}

			output, err := executeCommand(t, mockClient, tt.args...)
			require.NoError(t, err)
			require.Len(t, mockClient.ListLeadsCalls, 1)
			assert.Equal(t, tt.wantParams, mockClient.ListLeadsCalls[0].Params)
			assert.JSONEq(t, `{"leads": [{
				"id": "lead-1",
				"scan_id": "scan-1",
				"company_name": "Acme Robotics",
				"milestone_type": "funding",
				"score": 85,
				"location": "Austin, TX",
				"seniority": "executive",
				"source_url": "https://acme.example.com/news",
				"discovered_at": "2025-03-14 09:30:00"
			}]}`, output)
		})
	}
}

func TestListLeadsCmdServerError(t *testing.T) {
	mockClient := &mock.MockClient{
		ListLeadsFn: func(_ context.Context, _ types.LeadListParams) ([]models.Lead, error) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid sort order")
		},
	}

	_, err := executeCommand(t, mockClient, "leads", "list", "--sort", "oldest")
	require.Error(t, err)
	assert.Equal(t, "error listing leads: invalid sort order", err.Error())
}

func TestGetLeadCmd(t *testing.T) {
	mockClient := &mock.MockClient{
		GetLeadFn: func(_ context.Context, _ string) (models.Lead, error) {
			return testLead(), nil
		},
	}

	output, err := executeCommand(t, mockClient, "leads", "get", "-i", "lead-1")
	require.NoError(t, err)
	require.Len(t, mockClient.GetLeadCalls, 1)
	assert.Equal(t, "lead-1", mockClient.GetLeadCalls[0].ID)
	assert.JSONEq(t, `{
		"id": "lead-1",
		"scan_id": "scan-1",
		"company_name": "Acme Robotics",
		"milestone_type": "funding",
		"score": 85,
		"location": "Austin, TX",
		"seniority": "executive",
		"source_url": "https://acme.example.com/news",
		"source_text": "Acme Robotics raises $20M Series B",
		"discovered_at": "2025-03-14 09:30:00"
	}`, output)

	_, err = executeCommand(t, mockClient, "leads", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "id" not set`)
}
