// Package types contains the request and response payloads shared by the API server, client and CLI.
package types

import (
	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/services"
)

// Slug is a type for the slug field in the response
// It is mainly used for the client to understand the type of the response
type Slug string

// nolint:gochecknoglobals
const (
	SuccessSlug      Slug = "success"
	ErrorSlug        Slug = "error"
	InvalidInputSlug Slug = "invalid-input"
	ServerErrorSlug  Slug = "server-error"
	NotFoundSlug     Slug = "not-found"
	UnavailableSlug  Slug = "unavailable"
)

// SlugResponse is the response type for the API
type SlugResponse struct {
	Slug  Slug        `json:"slug"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// ErrInvalidInput returns a SlugResponse with the InvalidInputSlug and the error message
func ErrInvalidInput(msg string) SlugResponse {
	return SlugResponse{
		Slug:  InvalidInputSlug,
		Error: msg,
	}
}

// ErrServer returns a SlugResponse with the ServerErrorSlug and the error message
func ErrServer(msg string) SlugResponse {
	return SlugResponse{
		Slug:  ServerErrorSlug,
		Error: msg,
	}
}

// ErrNotFound returns a SlugResponse with the NotFoundSlug and the error message
func ErrNotFound(msg string) SlugResponse {
	return SlugResponse{
		Slug:  NotFoundSlug,
		Error: msg,
	}
}

// ErrUnavailable returns a SlugResponse telling the caller to retry later
func ErrUnavailable(msg string) SlugResponse {
	return SlugResponse{
		Slug:  UnavailableSlug,
		Error: msg,
	}
}

// Success returns a SlugResponse with the SuccessSlug and the data
func Success(data interface{}) SlugResponse {
	return SlugResponse{
		Slug: SuccessSlug,
		Data: data,
	}
}

// PaginationResponse describes the page a list response holds
type PaginationResponse struct {
	Total  int `json:"total"`
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is a generic response structure for lists
type ListResponse[T any] struct {
	Rows       []T                `json:"rows"`
	Pagination PaginationResponse `json:"pagination"`
}

// StartScanRequest is the body of a scan start request
type StartScanRequest = models.ScanParams

// StartScanResponse is returned once a scan is queued
type StartScanResponse struct {
	ScanID string            `json:"scan_id"`
	Status models.ScanStatus `json:"status"`
}

// CancelScanResponse reports the state of a scan after a cancel request
type CancelScanResponse struct {
	ScanID string            `json:"scan_id"`
	Status models.ScanStatus `json:"status"`
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status string          `json:"status"`
	Scans  services.Health `json:"scans"`
}
