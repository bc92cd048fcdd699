package services

import (
	"errors"
	"fmt"
)

// Pipeline error kinds. Handlers map these onto HTTP responses, so every
// failure out of AnalyzerService.Analyze wraps exactly one of them (input
// validation failures use InvalidInputError instead).
var (
	// ErrUnauthenticated means the request carried no resolved user identity.
	// Raised before any external call is made.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrOracleUnavailable means the scoring service was unreachable or
	// returned a malformed payload. The caller may re-submit; the pipeline
	// never retries on its own.
	ErrOracleUnavailable = errors.New("review scoring service unavailable")

	// ErrPersistenceFailed means scoring and explanation succeeded but the
	// record could not be durably written. No record is returned.
	ErrPersistenceFailed = errors.New("failed to store analysis")
)

// InvalidInputError rejects a request before any external call.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}
