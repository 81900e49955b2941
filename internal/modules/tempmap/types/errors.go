package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoReadings is returned when every location failed in one acquisition pass.
var ErrNoReadings = errors.New("no readings acquired")

// NetworkError means the request could not be completed (timeout, DNS, refused, cancelled).
type NetworkError struct {
	Location string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Location, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type HTTPStatusError struct {
	Location   string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Location, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Location, e.StatusCode, e.Body)
}

// MalformedResponseError means the body could not be decoded or lacks
// current.temperature_2m / current.time.
type MalformedResponseError struct {
	Location string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Location, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Location, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// InvalidTemperatureError is returned instead of substituting zero, which
// would land in the coldest colour bucket.
type InvalidTemperatureError struct {
	Location string
	Value    float64
}

func (e *InvalidTemperatureError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("invalid temperature %v", e.Value)
	}
	return fmt.Sprintf("%s: invalid temperature %v", e.Location, e.Value)
}

// ValidTemperature reports whether t is a finite number.
func ValidTemperature(t float64) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0)
}
