package scheduler

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. RevlogKeyClash and Cancelled are recovered
// internally; the others bubble up to the caller.
var (
	ErrInvalidTransition   = errors.New("scheduler: invalid card transition")
	ErrInvalidPreviewState = errors.New("scheduler: invalid preview state")
	ErrInvalidEarlyReview  = errors.New("scheduler: invalid early review")
	ErrRevlogKeyClash      = errors.New("scheduler: revlog key clash")
	ErrCancelled           = errors.New("scheduler: cancelled")
)

// invalidTransitionf wraps ErrInvalidTransition with context, still
// matched by errors.Is(err, ErrInvalidTransition).
func invalidTransitionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidTransition}, args...)...)
}

func invalidPreviewStatef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidPreviewState}, args...)...)
}

func invalidEarlyReviewf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidEarlyReview}, args...)...)
}
