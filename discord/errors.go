// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Discord API. All API error
// responses share this JSON shape.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord: %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is an APIError with HTTP status 404.
// Used to distinguish "gone" (stale role, already-deleted message)
// from real failures.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
