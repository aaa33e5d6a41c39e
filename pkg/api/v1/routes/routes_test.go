package routes

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "health", got: HealthCheckURL(), want: "/health"},
		{name: "list scans", got: ListScansURL(nil), want: "/api/v1/scans"},
		{name: "list scans with query", got: ListScansURL(url.Values{"status": []string{"pending"}}), want: "/api/v1/scans?status=pending"},
		{name: "active scans", got: ListActiveScansURL(), want: "/api/v1/scans/active"},
		{name: "get scan", got: GetScanURL("scan-1"), want: "/api/v1/scans/scan-1"},
		{name: "start scan", got: StartScanURL(), want: "/api/v1/scans"},
		{name: "cancel scan", got: CancelScanURL("scan-1"), want: "/api/v1/scans/scan-1/cancel"},
		{name: "list leads", got: ListLeadsURL(url.Values{"sort": []string{"score"}}), want: "/api/v1/leads?sort=score"},
		{name: "get lead", got: GetLeadURL("abc"), want: "/api/v1/leads/abc"},
		{name: "stats", got: GetStatsURL(), want: "/api/v1/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestBuildURLEscapesParams(t *testing.T) {
	assert.Equal(t, "/api/v1/leads/a%2Fb", GetLeadURL("a/b"))
}

func TestBuildURLUnknownRoute(t *testing.T) {
	assert.Empty(t, BuildURL("NoSuchRoute", nil, nil))
}
