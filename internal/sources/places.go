package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultPlacesBaseURL is the Google Places text search endpoint
const DefaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// placesResponse is the subset of the text search response we read
type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// PlacesDiscovery finds companies with the Google Places text search API
type PlacesDiscovery struct {
	apiKey  string
	baseURL string
	limiter *HostLimiter
}

// NewPlacesDiscovery creates a discovery strategy. An empty baseURL uses the public endpoint.
func NewPlacesDiscovery(apiKey, baseURL string, limiter *HostLimiter) (*PlacesDiscovery, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("places API key is required for places discovery")
	}
	if baseURL == "" {
		baseURL = DefaultPlacesBaseURL
	}
	return &PlacesDiscovery{apiKey: apiKey, baseURL: baseURL, limiter: limiter}, nil
}

// FindCompanies queries businesses around location
func (p *PlacesDiscovery) FindCompanies(ctx context.Context, location string, radiusKm float64) ([]Company, error) {
	q := url.Values{}
	q.Set("query", "companies in "+location)
	q.Set("radius", strconv.Itoa(int(radiusKm*1000)))
	q.Set("key", p.apiKey)

	body, err := fetch(ctx, p.limiter, p.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}

	var resp placesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding places response: %w", err)
	}
	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("places search failed: %s %s", resp.Status, resp.ErrorMessage)
	}

	companies := make([]Company, 0, len(resp.Results))
	for _, r := range resp.Results {
		lat, lng := r.Geometry.Location.Lat, r.Geometry.Location.Lng
		companies = append(companies, Company{
			Name:     r.Name,
			Location: r.FormattedAddress,
			Lat:      &lat,
			Lng:      &lng,
		})
	}
	return companies, nil
}
