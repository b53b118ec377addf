package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the pipeline and the HTTP layer.
// Callers wrap these with context and match them with errors.Is.
var (
	// Missing or invalid request input; user-correctable.
	ErrInvalidInput = errors.New("invalid input")
	// Geocoding produced no match.
	ErrNotFound = errors.New("location not found")
	// A required credential or setting is missing; operator-correctable.
	ErrConfig = errors.New("configuration error")
	// The distance quota denied the call.
	ErrRateLimited = errors.New("rate limited")
	// An outbound call failed after retries.
	ErrProvider = errors.New("provider error")
)

// ErrInvalidRadius is the invalid-input case for a non-positive or
// non-numeric search radius.
var ErrInvalidRadius = fmt.Errorf("radius must be a positive number: %w", ErrInvalidInput)
