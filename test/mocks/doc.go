// Package mocks provides candidate sources with controllable behaviour for integration tests.
package mocks
