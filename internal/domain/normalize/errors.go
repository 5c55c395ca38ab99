package normalize

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrMissingID       = errors.New("snapshot has no service id")
)
