package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrAssertionMismatch marks an observed text or class that differs from
	// the expected one.
	ErrAssertionMismatch = errors.New("assertion mismatch")
	// ErrTimeout marks an element that never reached the required state.
	ErrTimeout = errors.New("timed out waiting")
	// ErrNoAcceptedOffset is returned by ProbeMinOffset when no offset in
	// the probed range was accepted.
	ErrNoAcceptedOffset = errors.New("no date offset accepted")
)

// AssertionError describes what a region showed versus what was expected.
type AssertionError struct {
	Region   string
	Expected string
	Actual   string
	Cause    error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s: expected %q, got %q", e.Region, e.Expected, e.Actual)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AssertionError) Is(target error) bool { return target == ErrAssertionMismatch }

func (e *AssertionError) Unwrap() error { return e.Cause }

// TimeoutError reports a region that did not reach State within Timeout.
type TimeoutError struct {
	Region  string
	State   string
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not become %s within %s", e.Region, e.State, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Cause }

// isTimeout reports whether err is a wait that ran out, whether or not the
// driver already mapped it to a TimeoutError.
func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, playwright.ErrTimeout)
}
