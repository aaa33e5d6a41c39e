// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/pkg/api/v1/handlers"
)

/*

To keep this file organized, routes should be organized in the following way:

1. Smallest scope first (i.e. scan routes before lead routes)
2. For similar scopes, put the endpoints in alphabetical order
3. Order routes in GET, POST, PUT, DELETE order.
	a. Within this ordering, param urls (ie /:id) should go last, otherwise fiber will interpret the route slug as that param.
	b. After param considerations, order alphabetically.
4. For clarity, naming should match the action (i.e. GetScan, CancelScan)

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Scan routes
	ListScans       = "ListScans"
	ListActiveScans = "ListActiveScans"
	GetScan         = "GetScan"
	StartScan       = "StartScan"
	CancelScan      = "CancelScan"

	// Lead routes
	ListLeads = "ListLeads"
	GetLead   = "GetLead"

	// Stats
	GetStats = "GetStats"
)

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes
//
// NOTE: route ordering is important because routes will try and match in the order they are registered.
// For example, if we register GetScan before ListActiveScans, /active will get interpreted as a scan ID.
func RegisterRoutes(
	app *fiber.App,
	scanHandler *handlers.ScanHandler,
	leadHandler *handlers.LeadHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Health check
	app.Get("/health", healthHandler.Check).Name(HealthCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// Scans endpoints
	scans := v1.Group("/scans")
	scans.Get("/", scanHandler.ListScans).Name(ListScans)
	scans.Get("/active", scanHandler.ListActiveScans).Name(ListActiveScans)
	scans.Get("/:id", scanHandler.GetScan).Name(GetScan)
	scans.Post("/", scanHandler.StartScan).Name(StartScan)
	scans.Post("/:id/cancel", scanHandler.CancelScan).Name(CancelScan)

	// ---------------------------
	// Leads endpoints
	leads := v1.Group("/leads")
	leads.Get("/", leadHandler.ListLeads).Name(ListLeads)
	leads.Get("/:id", leadHandler.GetLead).Name(GetLead)

	// Stats endpoint
	v1.Get("/stats", leadHandler.GetStats).Name(GetStats)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCache = make(map[string]string)

		// Create a mock app
		app := fiber.New()

		// Register routes with empty handlers, they are never invoked
		RegisterRoutes(app, &handlers.ScanHandler{}, &handlers.LeadHandler{}, &handlers.HealthHandler{})

		// Extract routes from the app
		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	initRouteCache()

	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()
	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// Health check route helper

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// Scan route helpers

// ListScansURL returns the URL for listing scans
func ListScansURL(queryParams url.Values) string {
	return BuildURL(ListScans, nil, queryParams)
}

// ListActiveScansURL returns the URL for listing active scans
func ListActiveScansURL() string {
	return BuildURL(ListActiveScans, nil, nil)
}

// GetScanURL returns the URL for getting a scan by ID
func GetScanURL(id string) string {
	return BuildURL(GetScan, map[string]string{"id": id}, nil)
}

// StartScanURL returns the URL for starting a scan
func StartScanURL() string {
	return BuildURL(StartScan, nil, nil)
}

// CancelScanURL returns the URL for cancelling a scan
func CancelScanURL(id string) string {
	return BuildURL(CancelScan, map[string]string{"id": id}, nil)
}

// Lead route helpers

// ListLeadsURL returns the URL for listing leads
func ListLeadsURL(queryParams url.Values) string {
	return BuildURL(ListLeads, nil, queryParams)
}

// GetLeadURL returns the URL for getting a lead by ID
func GetLeadURL(id string) string {
	return BuildURL(GetLead, map[string]string{"id": id}, nil)
}

// GetStatsURL returns the URL for the dashboard stats
func GetStatsURL() string {
	return BuildURL(GetStats, nil, nil)
}
