package runner

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// eventually polls check until it returns nil, the timeout elapses or ctx
// is done. On timeout the last error from check is returned. A check error
// wrapped with backoff.Permanent stops polling and is returned unwrapped. A
// non-positive timeout checks exactly once.
func eventually(ctx context.Context, timeout, interval time.Duration, check func() error) error {
	if timeout <= 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return unwrapPermanent(check())
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = 4 * interval
	b.Multiplier = 1.5
	b.MaxElapsedTime = timeout

	var last error
	err := backoff.Retry(func() error {
		last = check()
		return last
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		return perm.Err
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if last != nil {
		return last
	}
	return err
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
