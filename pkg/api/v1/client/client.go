// Package client provides the API client for interacting with the milescrape API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/api/v1/routes"
	"github.com/milescrape/milescrape/pkg/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// Scan Endpoints
	StartScan(ctx context.Context, req types.StartScanRequest) (types.StartScanResponse, error)
	ListScans(ctx context.Context, params types.ScanListParams) ([]models.Scan, error)
	ListActiveScans(ctx context.Context) ([]models.Scan, error)
	GetScan(ctx context.Context, id string) (models.Scan, error)
	CancelScan(ctx context.Context, id string) (types.CancelScanResponse, error)

	// Lead Endpoints
	ListLeads(ctx context.Context, params types.LeadListParams) ([]models.Lead, error)
	GetLead(ctx context.Context, id string) (models.Lead, error)
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: timeout,
	}, nil
}

// envelope is the wire form of types.SlugResponse with the data left undecoded
type envelope struct {
	Slug  types.Slug      `json:"slug"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := c.baseURL + endpoint

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	// Set common headers
	agent.Set("Accept", "application/json")

	// Add body if provided
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and decodes the data of the slug envelope into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	// Execute the request
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	var resp envelope
	decodeErr := json.Unmarshal(body, &resp)

	// Check for non-success status codes
	if statusCode < 200 || statusCode >= 300 {
		msg := string(body)
		if decodeErr == nil && resp.Error != "" {
			msg = resp.Error
		}
		return &fiber.Error{
			Code:    statusCode,
			Message: msg,
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("error decoding response: %w", decodeErr)
	}

	// Decode the response data if a target is provided
	if v != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			return fmt.Errorf("error decoding response data: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	var resp types.HealthResponse
	err := c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), nil, &resp)
	return resp, err
}

// StartScan queues a new scan
func (c *APIClient) StartScan(ctx context.Context, req types.StartScanRequest) (types.StartScanResponse, error) {
	var resp types.StartScanResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.StartScanURL(), req, &resp)
	return resp, err
}

// ListScans lists scans newest first
func (c *APIClient) ListScans(ctx context.Context, params types.ScanListParams) ([]models.Scan, error) {
	var resp types.ListResponse[models.Scan]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListScansURL(params.Values()), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// ListActiveScans lists pending and in-progress scans
func (c *APIClient) ListActiveScans(ctx context.Context) ([]models.Scan, error) {
	var resp types.ListResponse[models.Scan]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListActiveScansURL(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// GetScan retrieves the status snapshot of a scan
func (c *APIClient) GetScan(ctx context.Context, id string) (models.Scan, error) {
	var scan models.Scan
	err := c.executeRequest(ctx, http.MethodGet, routes.GetScanURL(id), nil, &scan)
	return scan, err
}

// CancelScan requests cancellation of a scan
func (c *APIClient) CancelScan(ctx context.Context, id string) (types.CancelScanResponse, error) {
	var resp types.CancelScanResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.CancelScanURL(id), nil, &resp)
	return resp, err
}

// ListLeads lists leads matching params
func (c *APIClient) ListLeads(ctx context.Context, params types.LeadListParams) ([]models.Lead, error) {
	var resp types.ListResponse[models.Lead]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListLeadsURL(params.Values()), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// GetLead retrieves a lead by id
func (c *APIClient) GetLead(ctx context.Context, id string) (models.Lead, error) {
	var lead models.Lead
	err := c.executeRequest(ctx, http.MethodGet, routes.GetLeadURL(id), nil, &lead)
	return lead, err
}

// GetStats retrieves the dashboard counters
func (c *APIClient) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.executeRequest(ctx, http.MethodGet, routes.GetStatsURL(), nil, &stats)
	return stats, err
}
