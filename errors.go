// errors.go
package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEstimator indicates no pose estimator was configured
	ErrNoEstimator = errors.New("no estimator configured")

	// ErrTooShort indicates the sequence has too few frames to analyze
	ErrTooShort = errors.New("sequence too short")

	// ErrNoCycles indicates no gait cycles were detected
	ErrNoCycles = errors.New("no gait cycles detected")
)

// Error wraps a pipeline error with additional context
type Error struct {
	Op    string // Pipeline stage that failed
	Video string // Video path if applicable
	Err   error  // Underlying error
}

func (e *Error) Error() string {
	if e.Video != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Video, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
