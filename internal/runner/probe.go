package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
)

// ProbeResult records how the application treated one date offset.
type ProbeResult struct {
	Offset   int
	Date     string
	Accepted bool
	Observed string
}

var errUndecided = errors.New("neither notification nor date error shown")

// ProbeMinOffset submits an otherwise valid booking for each day offset in
// [from, to] and returns the first offset the application accepts. Probing
// stops at the first accepted offset.
func (r *Runner) ProbeMinOffset(ctx context.Context, now booking.Clock, from, to int) (int, []ProbeResult, error) {
	if from > to {
		return 0, nil, fmt.Errorf("invalid offset range [%d, %d]", from, to)
	}
	var probes []ProbeResult
	for offset := from; offset <= to; offset++ {
		date := booking.DateWithOffset(now, offset)
		in := booking.ValidInput(now).With(func(in *booking.Input) { in.Date = date })
		if err := r.Submit(ctx, in); err != nil {
			return 0, probes, fmt.Errorf("offset %d: %w", offset, err)
		}
		p, err := r.classify(ctx, offset, date)
		if err != nil {
			return 0, probes, fmt.Errorf("offset %d: %w", offset, err)
		}
		probes = append(probes, p)
		r.log.Info().Int("offset", offset).Str("date", date).Bool("accepted", p.Accepted).Msg("probed date")
		if p.Accepted {
			return offset, probes, nil
		}
	}
	return 0, probes, ErrNoAcceptedOffset
}

// classify waits until the page either shows the notification or the date
// error. Read timeouts keep it waiting; any other driver error ends it.
func (r *Runner) classify(ctx context.Context, offset int, date string) (ProbeResult, error) {
	p := ProbeResult{Offset: offset, Date: date}
	err := eventually(ctx, r.opts.NotificationTimeout, r.opts.PollInterval, func() error {
		visible, err := r.driver.IsVisible(booking.NotificationContent)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("check notification: %w", err))
		}
		if visible {
			text, err := r.driver.Text(booking.NotificationContent)
			if err != nil {
				return readFailure("read notification", err)
			}
			p.Accepted, p.Observed = true, normalizeText(text)
			return nil
		}
		text, err := r.driver.Text(booking.FieldDate.Sub())
		if err != nil {
			return readFailure("read date error", err)
		}
		if exactText(text, booking.MsgDateImpossible) {
			p.Accepted, p.Observed = false, normalizeText(text)
			return nil
		}
		return errUndecided
	})
	if errors.Is(err, errUndecided) || isTimeout(err) {
		return p, &TimeoutError{Region: "notification or date error", State: "visible", Timeout: r.opts.NotificationTimeout, Cause: err}
	}
	return p, err
}

// readFailure keeps polling after a read timeout and stops on anything else.
func readFailure(what string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return backoff.Permanent(fmt.Errorf("%s: %w", what, err))
}
