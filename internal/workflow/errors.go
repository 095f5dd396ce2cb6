package workflow

import "errors"

// ErrCancelled marks a run ended by a matching cancellation signal. It is a
// distinct terminal outcome: the failure hook is never invoked for it.
var ErrCancelled = errors.New("workflow run cancelled")

// NonRetriableError stops a run immediately, skipping the retry policy.
type NonRetriableError struct {
	Err error
}

func (e *NonRetriableError) Error() string {
	if e == nil || e.Err == nil {
		return "non-retriable error"
	}
	return e.Err.Error()
}

func (e *NonRetriableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NonRetriable wraps err so the engine will not retry it.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetriableError{Err: err}
}

// IsNonRetriable reports whether err carries a NonRetriableError anywhere in
// its chain.
func IsNonRetriable(err error) bool {
	var nr *NonRetriableError
	return errors.As(err, &nr)
}
