package report

import (
	"context"
	"errors"

	"github.com/netology-qa/card-delivery-e2e/internal/runner"
)

// Error kinds as reported in summaries and metrics.
const (
	KindAssertion = "assertion_mismatch"
	KindTimeout   = "timeout"
	KindCancelled = "cancelled"
	KindOther     = "error"
)

// ErrorKind classifies a scenario error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, runner.ErrTimeout):
		return KindTimeout
	case errors.Is(err, runner.ErrAssertionMismatch):
		return KindAssertion
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindOther
	}
}
