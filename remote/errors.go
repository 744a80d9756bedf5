// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
)

// ServiceError represents a structured error response from the chat
// service. Callers can use errors.As to extract the structured
// information, or [IsServiceError] for a specific code:
//
//	if remote.IsServiceError(err, remote.ErrCodeLastOwner) { ... }
type ServiceError struct {
	// Code is the service error code (e.g., "error-you-are-last-owner").
	Code string `json:"error"`
	// Message is the human-readable error description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("remote: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Service error codes the core distinguishes.
const (
	// ErrCodeLastOwner is returned by the leave endpoint when the
	// caller is the room's last owner. The coordinator surfaces a
	// specific notice for it instead of the generic leave failure.
	ErrCodeLastOwner = "error-you-are-last-owner"

	ErrCodeInvalidRoom  = "error-invalid-room"
	ErrCodeNotAllowed   = "error-not-allowed"
	ErrCodeUnauthorized = "error-unauthorized"
)

// IsServiceError checks whether err is a *ServiceError with the given
// error code.
func IsServiceError(err error, code string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}
