package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("snapshot queue full")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidQuery    = errors.New("invalid query")
)
