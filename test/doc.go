// Package test provides infrastructure and utilities for integration testing in milescrape.
//
// The test package wires a complete server the way cmd/main.go does: a file
// backed SQLite store, the scan orchestrator with pluggable candidate sources,
// the fiber API and a real API client talking to it over HTTP.
//
// The package provides:
//
//   - Suite: a struct that owns the database, orchestrator, server and client
//     and tears them down in the right order
//
//   - Mocks: candidate sources with controllable timing (see test/mocks)
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    s := test.NewSuite(t)
//	    defer s.Cleanup()
//
//	    resp, err := s.APIClient.StartScan(s.Context(), params)
//	    scan := s.WaitForScan(resp.ScanID)
//	}
package test
