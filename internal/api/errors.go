// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for gateway configuration problems.
var (
	// ErrNotConfigured indicates the server URL or API key is missing.
	ErrNotConfigured = errors.New("chat service not configured")

	// ErrAuthFailed indicates the bearer credential was rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// TransportError reports a request that failed before any well-formed
// response arrived: DNS, connection, TLS, or body-read failures.
type TransportError struct {
	Op  string // short operation name, e.g. "list sessions"
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError reports a non-success status in a well-formed response:
// either an HTTP error status or a service envelope with a non-zero code.
type ServerError struct {
	Op      string
	Status  int    // HTTP status, when the failure was at the HTTP layer
	Code    int    // service envelope code, when the failure was in the envelope
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: server error: %s", e.Op, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: server error: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: server error: code %d", e.Op, e.Code)
	}
}
