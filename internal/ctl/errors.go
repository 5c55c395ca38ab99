package ctl

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrUsage        = errors.New("usage error")
	ErrInvalidInput = errors.New("invalid input file")
)

// APIError is a non-2xx answer from the scorecard server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// retryable reports whether the request may succeed if sent again.
func (e *APIError) retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
