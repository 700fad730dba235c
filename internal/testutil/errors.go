// Package testutil provides testing utilities for homelink.
//
// This package contains mock errors and test helpers used across test files.
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockBroker indicates a mock broker failure (used in tests).
	ErrMockBroker = errors.New("broker unavailable")

	// ErrMockExec indicates a mock tool execution failure (used in tests).
	ErrMockExec = errors.New("exec failed")

	// ErrMockNetwork indicates a mock network error occurred (used in tests).
	ErrMockNetwork = errors.New("network error")

	// ErrMockNotFound indicates a mock resource was not found (used in tests).
	ErrMockNotFound = errors.New("not found")
)
