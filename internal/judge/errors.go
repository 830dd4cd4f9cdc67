package judge

import "fmt"

// ErrDisabled indicates the judge is turned off in configuration.
type ErrDisabled struct{}

func (ErrDisabled) Error() string { return "judge disabled" }

// ErrUnavailable indicates the underlying provider is unreachable.
type ErrUnavailable struct{ Err error }

func (e *ErrUnavailable) Error() string { return fmt.Sprintf("judge provider unavailable: %v", e.Err) }
func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrRateLimited indicates the provider rejected the call with a
// retryable rate-limit error that exhausted the retry budget.
type ErrRateLimited struct{ Err error }

func (e *ErrRateLimited) Error() string { return fmt.Sprintf("judge rate limited: %v", e.Err) }
func (e *ErrRateLimited) Unwrap() error { return e.Err }

// ErrTimeout indicates the judge call exceeded its deadline.
type ErrTimeout struct{ Err error }

func (e *ErrTimeout) Error() string { return fmt.Sprintf("judge call timed out: %v", e.Err) }
func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrParseError indicates the judge's response failed validation even
// after the one allowed reparse retry.
type ErrParseError struct {
	Reason string
	Raw    string
}

func (e *ErrParseError) Error() string {
	return fmt.Sprintf("judge response invalid: %s", e.Reason)
}

// ErrQuotaExceeded indicates the user's daily judge-call quota is spent.
type ErrQuotaExceeded struct {
	UserID string
	Limit  int
	Date   string
}

func (e *ErrQuotaExceeded) Error() string {
	return fmt.Sprintf("judge quota exceeded for user %s on %s (limit %d)", e.UserID, e.Date, e.Limit)
}

// ErrInvalidArtifact indicates the artifact is too large after
// normalization.
type ErrInvalidArtifact struct {
	SizeBytes int
	MaxBytes  int
}

func (e *ErrInvalidArtifact) Error() string {
	return fmt.Sprintf("artifact too large: %d bytes (max %d)", e.SizeBytes, e.MaxBytes)
}
