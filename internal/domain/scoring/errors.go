package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidValue      = errors.New("invalid metric value")
	ErrEmptyCategory     = errors.New("empty category")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownFormula    = errors.New("unknown formula")
	ErrInvalidDefinition = errors.New("invalid metric definition")
)

// UnknownMetricError reports a key missing from the definition table.
type UnknownMetricError struct {
	Key string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.Key)
}

func (e *UnknownMetricError) Unwrap() error { return ErrUnknownMetric }

// InvalidValueError reports a value that is not a usable number.
type InvalidValueError struct {
	Key   string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("metric %q: invalid value %q", e.Key, e.Value)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// EmptyCategoryError reports a category that has no gates to evaluate.
type EmptyCategoryError struct {
	Category CategoryID
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("category %q has no metrics", string(e.Category))
}

func (e *EmptyCategoryError) Unwrap() error { return ErrEmptyCategory }
