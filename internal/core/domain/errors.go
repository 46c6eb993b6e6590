package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any network call when a request is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalQuery marks a failed or expired call to an external collaborator.
	ErrExternalQuery = errors.New("external query failed")

	// ErrServiceUnavailable is returned when a collaborator failed for the whole operation.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrGenerationFailure is returned when round-trip synthesis does not converge.
	ErrGenerationFailure = errors.New("round trip generation failed")

	// ErrNotFound is returned when a round trip id is unknown.
	ErrNotFound = errors.New("not found")
)

// InvalidInputf wraps ErrInvalidInput with a formatted description.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ExternalQueryError records which collaborator failed.
type ExternalQueryError struct {
	Service string
	Err     error
}

func (e *ExternalQueryError) Error() string {
	return fmt.Sprintf("%s query: %v", e.Service, e.Err)
}

func (e *ExternalQueryError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrExternalQuery while still unwrapping to the cause.
func (e *ExternalQueryError) Is(target error) bool { return target == ErrExternalQuery }

// GenerationError is returned after maxAttempts without meeting the distance tolerance.
type GenerationError struct {
	Attempts       int     `json:"attempts"`
	BestErrorRatio float64 `json:"best_error_ratio"`
	Tolerance      float64 `json:"tolerance"`
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("round trip generation failed after %d attempts: best distance error %.1f%% exceeds tolerance %.1f%%",
		e.Attempts, e.BestErrorRatio*100, e.Tolerance*100)
}

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailure }
