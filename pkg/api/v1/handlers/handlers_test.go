package handlers_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/pkg/types"
	"github.com/milescrape/milescrape/test"
)

// do sends a request straight to the fiber app and decodes the slug envelope
func do(t *testing.T, app *fiber.App, method, target, body string) (int, types.SlugResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var slug types.SlugResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&slug))
	return resp.StatusCode, slug
}

func TestStartScan(t *testing.T) {
	s := test.NewSuite(t)
	defer s.Cleanup()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantSlug types.Slug
	}{
		{
			name:     "valid request",
			body:     `{"location":"Austin, TX","radius_km":10,"lookback_days":30,"milestone_types":["funding","award"]}`,
			wantCode: fiber.StatusCreated,
			wantSlug: types.SuccessSlug,
		},
		{
			name:     "malformed json",
			body:     `{"location":`,
			wantCode: fiber.StatusBadRequest,
			wantSlug: types.InvalidInputSlug,
		},
		{
			name:     "unknown milestone type",
			body:     `{"location":"Austin, TX","radius_km":10,"lookback_days":30,"milestone_types":["picnic"]}`,
			wantCode: fiber.StatusBadRequest,
			wantSlug: types.InvalidInputSlug,
		},
		{
			name:     "size range inverted",
			body:     `{"location":"Austin, TX","radius_km":10,"lookback_days":30,"milestone_types":["funding"],"company_size_min":50,"company_size_max":10}`,
			wantCode: fiber.StatusBadRequest,
			wantSlug: types.InvalidInputSlug,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, slug := do(t, s.App, fiber.MethodPost, "/api/v1/scans", tt.body)
			assert.Equal(t, tt.wantCode, code, slug.Error)
			assert.Equal(t, tt.wantSlug, slug.Slug)
			if tt.wantSlug == types.SuccessSlug {
				data, ok := slug.Data.(map[string]interface{})
				require.True(t, ok)
				assert.NotEmpty(t, data["scan_id"])
				assert.Equal(t, "pending", data["status"])
			} else {
				assert.NotEmpty(t, slug.Error)
			}
		})
	}
}

func TestListQueryValidation(t *testing.T) {
	s := test.NewSuite(t)
	defer s.Cleanup()

	tests := []struct {
		name     string
		target   string
		wantCode int
	}{
		{name: "scans", target: "/api/v1/scans", wantCode: fiber.StatusOK},
		{name: "scans by status", target: "/api/v1/scans?status=completed&page=2", wantCode: fiber.StatusOK},
		{name: "scans bad status", target: "/api/v1/scans?status=done", wantCode: fiber.StatusBadRequest},
		{name: "scans bad page", target: "/api/v1/scans?page=0", wantCode: fiber.StatusBadRequest},
		{name: "active scans", target: "/api/v1/scans/active", wantCode: fiber.StatusOK},
		{name: "leads", target: "/api/v1/leads?sort=score&min_score=70&milestone_type=funding", wantCode: fiber.StatusOK},
		{name: "leads bad milestone", target: "/api/v1/leads?milestone_type=picnic", wantCode: fiber.StatusBadRequest},
		{name: "leads bad min score", target: "/api/v1/leads?min_score=101", wantCode: fiber.StatusBadRequest},
		{name: "leads bad sort", target: "/api/v1/leads?sort=name", wantCode: fiber.StatusBadRequest},
		{name: "stats", target: "/api/v1/stats", wantCode: fiber.StatusOK},
		{name: "health", target: "/health", wantCode: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, slug := do(t, s.App, fiber.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantCode, code, slug.Error)
			if tt.wantCode == fiber.StatusOK {
				assert.Equal(t, types.SuccessSlug, slug.Slug)
			} else {
				assert.Equal(t, types.InvalidInputSlug, slug.Slug)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	s := test.NewSuite(t)
	defer s.Cleanup()

	for _, tc := range []struct{ method, target string }{
		{fiber.MethodGet, "/api/v1/scans/scan-missing"},
		{fiber.MethodPost, "/api/v1/scans/scan-missing/cancel"},
		{fiber.MethodGet, "/api/v1/leads/missing"},
	} {
		code, slug := do(t, s.App, tc.method, tc.target, "")
		assert.Equal(t, fiber.StatusNotFound, code, tc.target)
		assert.Equal(t, types.NotFoundSlug, slug.Slug)
		assert.Contains(t, slug.Error, "not found")
	}
}

func TestEmptyStats(t *testing.T) {
	s := test.NewSuite(t)
	defer s.Cleanup()

	code, slug := do(t, s.App, fiber.MethodGet, "/api/v1/stats", "")
	require.Equal(t, fiber.StatusOK, code)
	data, ok := slug.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, data["total_leads"])
	assert.EqualValues(t, 0, data["conversion_rate"])
}
