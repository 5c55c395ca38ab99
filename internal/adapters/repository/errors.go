package repository

import "errors"

// Sentinel kinds for catalogue errors.
var (
	ErrNotFound       = errors.New("service not found")
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidFixture = errors.New("invalid fixture")
)
