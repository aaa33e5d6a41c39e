package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/types"
)

// TestNewClient tests the NewClient function with various configurations.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		opts       *Options
		wantErr    bool
		validateFn func(t *testing.T, client Client)
	}{
		{
			name: "nil options",
			opts: nil,
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				require.True(t, ok, "client should be an *APIClient")

				expectedDefaults := DefaultOptions()
				assert.Equal(t, expectedDefaults.BaseURL, apiClient.baseURL)
				assert.Equal(t, expectedDefaults.Timeout, apiClient.timeout)
			},
		},
		{
			name: "valid options",
			opts: &Options{
				BaseURL: "http://example.com",
				Timeout: 10 * time.Second,
			},
			validateFn: func(t *testing.T, client Client) {
				apiClient, ok := client.(*APIClient)
				require.True(t, ok, "client should be an *APIClient")

				assert.Equal(t, "http://example.com", apiClient.baseURL)
				assert.Equal(t, 10*time.Second, apiClient.timeout)
			},
		},
		{
			name: "zero timeout falls back to default",
			opts: &Options{BaseURL: "http://example.com"},
			validateFn: func(t *testing.T, client Client) {
				assert.Equal(t, DefaultTimeout, client.(*APIClient).timeout)
			},
		},
		{
			name:    "invalid base URL",
			opts:    &Options{BaseURL: "://invalid-url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			if tt.validateFn != nil {
				tt.validateFn(t, client)
			}
		})
	}
}

// setupTestServer creates a mock HTTP server for testing the client.
// It provides several endpoints that simulate different API responses:
// - /api/v1/scans/scan-1: Returns a scan in a success envelope
// - /api/v1/scans/scan-missing: Returns a 404 not-found envelope
// - /api/v1/scans/scan-raw: Returns a 502 with a plain text body
// - /api/v1/scans/scan-garbled: Returns malformed JSON with a 200
// - /api/v1/stats: Returns dashboard stats
func setupTestServer(t *testing.T) (*httptest.Server, Client) {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, code int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/api/v1/scans/scan-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.Success(models.Scan{
			ID:       "scan-1",
			Status:   models.ScanStatusInProgress,
			Progress: 40,
			Log:      []models.ScanLogEntry{{Message: "Scan started"}},
		}))
	})
	mux.HandleFunc("/api/v1/scans/scan-missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, types.ErrNotFound("scan scan-missing not found"))
	})
	mux.HandleFunc("/api/v1/scans/scan-raw", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	mux.HandleFunc("/api/v1/scans/scan-garbled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	})
	mux.HandleFunc("/api/v1/scans", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusOK, types.Success(types.ListResponse[models.Scan]{
				Rows: []models.Scan{{ID: "scan-1"}, {ID: "scan-2"}},
			}))
			return
		}
		var req types.StartScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, types.ErrInvalidInput(err.Error()))
			return
		}
		writeJSON(w, http.StatusCreated, types.Success(types.StartScanResponse{
			ScanID: "scan-" + req.Location,
			Status: models.ScanStatusPending,
		}))
	})
	mux.HandleFunc("/api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.Success(models.DashboardStats{
			TotalLeads:      4,
			ScansRun:        3,
			ConversionRate:  133,
			MilestoneCounts: map[models.MilestoneType]int64{models.MilestoneFunding: 2},
		}))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return server, client
}

func TestClientDecodesEnvelope(t *testing.T) {
	_, client := setupTestServer(t)
	ctx := context.Background()

	scan, err := client.GetScan(ctx, "scan-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusInProgress, scan.Status)
	assert.Equal(t, 40, scan.Progress)
	require.Len(t, scan.Log, 1)

	scans, err := client.ListScans(ctx, types.ScanListParams{Page: 1})
	require.NoError(t, err)
	assert.Len(t, scans, 2)

	started, err := client.StartScan(ctx, types.StartScanRequest{Location: "austin"})
	require.NoError(t, err)
	assert.Equal(t, "scan-austin", started.ScanID)
	assert.Equal(t, models.ScanStatusPending, started.Status)

	stats, err := client.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalLeads)
	assert.EqualValues(t, 2, stats.MilestoneCounts[models.MilestoneFunding])
}

func TestClientErrors(t *testing.T) {
	_, client := setupTestServer(t)
	ctx := context.Background()

	t.Run("slug error message", func(t *testing.T) {
		_, err := client.GetScan(ctx, "scan-missing")
		var ferr *fiber.Error
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, http.StatusNotFound, ferr.Code)
		assert.Equal(t, "scan scan-missing not found", ferr.Message)
	})

	t.Run("raw body message", func(t *testing.T) {
		_, err := client.GetScan(ctx, "scan-raw")
		var ferr *fiber.Error
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, http.StatusBadGateway, ferr.Code)
		assert.Equal(t, "upstream down", ferr.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := client.GetScan(ctx, "scan-garbled")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding response")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.GetScan(cctx, "scan-1")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unreachable server", func(t *testing.T) {
		c, err := NewClient(&Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
		require.NoError(t, err)
		_, err = c.HealthCheck(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error sending request")
	})
}
