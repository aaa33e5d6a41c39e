// Package mock provides a function-field implementation of client.Client for tests
package mock

import (
	"context"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/api/v1/client"
	"github.com/milescrape/milescrape/pkg/types"
)

// MockClient implements the Client interface for testing
type MockClient struct {
	// Function fields that can be set to mock behavior
	HealthCheckFn     func(ctx context.Context) (types.HealthResponse, error)
	StartScanFn       func(ctx context.Context, req types.StartScanRequest) (types.StartScanResponse, error)
	ListScansFn       func(ctx context.Context, params types.ScanListParams) ([]models.Scan, error)
	ListActiveScansFn func(ctx context.Context) ([]models.Scan, error)
	GetScanFn         func(ctx context.Context, id string) (models.Scan, error)
	CancelScanFn      func(ctx context.Context, id string) (types.CancelScanResponse, error)
	ListLeadsFn       func(ctx context.Context, params types.LeadListParams) ([]models.Lead, error)
	GetLeadFn         func(ctx context.Context, id string) (models.Lead, error)
	GetStatsFn        func(ctx context.Context) (models.DashboardStats, error)

	// Call tracking for verification
	StartScanCalls []struct {
		Ctx context.Context
		Req types.StartScanRequest
	}
	ListScansCalls []struct {
		Ctx    context.Context
		Params types.ScanListParams
	}
	GetScanCalls []struct {
		Ctx context.Context
		ID  string
	}
	CancelScanCalls []struct {
		Ctx context.Context
		ID  string
	}
	ListLeadsCalls []struct {
		Ctx    context.Context
		Params types.LeadListParams
	}
	GetLeadCalls []struct {
		Ctx context.Context
		ID  string
	}
}

// Ensure MockClient implements Client interface
var _ client.Client = (*MockClient)(nil)

// HealthCheck implements client.Client
func (m *MockClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return types.HealthResponse{Status: "healthy"}, nil
}

// StartScan implements client.Client
func (m *MockClient) StartScan(ctx context.Context, req types.StartScanRequest) (types.StartScanResponse, error) {
	m.StartScanCalls = append(m.StartScanCalls, struct {
		Ctx context.Context
		Req types.StartScanRequest
	}{ctx, req})
	if m.StartScanFn != nil {
		return m.StartScanFn(ctx, req)
	}
	return types.StartScanResponse{}, nil
}

// ListScans implements client.Client
func (m *MockClient) ListScans(ctx context.Context, params types.ScanListParams) ([]models.Scan, error) {
	m.ListScansCalls = append(m.ListScansCalls, struct {
		Ctx    context.Context
		Params types.ScanListParams
	}{ctx, params})
	if m.ListScansFn != nil {
		return m.ListScansFn(ctx, params)
	}
	return nil, nil
}

// ListActiveScans implements client.Client
func (m *MockClient) ListActiveScans(ctx context.Context) ([]models.Scan, error) {
	if m.ListActiveScansFn != nil {
		return m.ListActiveScansFn(ctx)
	}
	return nil, nil
}

// GetScan implements client.Client
func (m *MockClient) GetScan(ctx context.Context, id string) (models.Scan, error) {
	m.GetScanCalls = append(m.GetScanCalls, struct {
		Ctx context.Context
		ID  string
	}{ctx, id})
	if m.GetScanFn != nil {
		return m.GetScanFn(ctx, id)
	}
	return models.Scan{}, nil
}

// CancelScan implements client.Client
func (m *MockClient) CancelScan(ctx context.Context, id string) (types.CancelScanResponse, error) {
	m.CancelScanCalls = append(m.CancelScanCalls, struct {
		Ctx context.Context
		ID  string
	}{ctx, id})
	if m.CancelScanFn != nil {
		return m.CancelScanFn(ctx, id)
	}
	return types.CancelScanResponse{}, nil
}

// ListLeads implements client.Client
func (m *MockClient) ListLeads(ctx context.Context, params types.LeadListParams) ([]models.Lead, error) {
	m.ListLeadsCalls = append(m.ListLeadsCalls, struct {
		Ctx    context.Context
		Params types.LeadListParams
	}{ctx, params})
	if m.ListLeadsFn != nil {
		return m.ListLeadsFn(ctx, params)
	}
	return nil, nil
}

// GetLead implements client.Client
func (m *MockClient) GetLead(ctx context.Context, id string) (models.Lead, error) {
	m.GetLeadCalls = append(m.GetLeadCalls, struct {
		Ctx context.Context
		ID  string
	}{ctx, id})
	if m.GetLeadFn != nil {
		return m.GetLeadFn(ctx, id)
	}
	return models.Lead{}, nil
}

// GetStats implements client.Client
func (m *MockClient) GetStats(ctx context.Context) (models.DashboardStats, error) {
	if m.GetStatsFn != nil {
		return m.GetStatsFn(ctx)
	}
	return models.DashboardStats{}, nil
}
