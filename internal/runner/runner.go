// Package runner drives the card delivery form through a browser and checks
// what the application shows after submission.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/logging"
)

const (
	DefaultNotificationTimeout = 15 * time.Second
	DefaultAssertTimeout       = 4 * time.Second
	defaultPollInterval        = 100 * time.Millisecond
)

// Options tunes a Runner. Zero values take the defaults above.
type Options struct {
	BaseURL             string
	NotificationTimeout time.Duration
	AssertTimeout       time.Duration
	PollInterval        time.Duration
	// ArtifactsDir receives failure screenshots when Screenshots is set.
	ArtifactsDir string
	Screenshots  bool
	RunID        string
}

// Scenario is one independent form submission and its expected outcome.
type Scenario struct {
	Name   string
	Input  booking.Input
	Expect booking.Outcome
}

// Result is the record of one executed scenario.
type Result struct {
	RunID      string
	Scenario   string
	Input      booking.Input
	Kind       booking.OutcomeKind
	Expected   string
	Observed   string
	Err        error
	Duration   time.Duration
	Screenshot string
}

// Passed reports whether the scenario met its expectation.
func (r Result) Passed() bool { return r.Err == nil }

// Runner executes scenarios one after another against a single page.
type Runner struct {
	driver Driver
	opts   Options
	log    zerolog.Logger
}

// New creates a runner over d.
func New(d Driver, opts Options) *Runner {
	if opts.NotificationTimeout == 0 {
		opts.NotificationTimeout = DefaultNotificationTimeout
	}
	if opts.AssertTimeout == 0 {
		opts.AssertTimeout = DefaultAssertTimeout
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Runner{
		driver: d,
		opts:   opts,
		log:    logging.For("runner").With().Str("run_id", opts.RunID).Logger(),
	}
}

// RunID identifies this runner's artifacts.
func (r *Runner) RunID() string { return r.opts.RunID }

// Run fills and submits the form with sc.Input and asserts sc.Expect.
func (r *Runner) Run(ctx context.Context, sc Scenario) Result {
	start := time.Now()
	res := Result{
		RunID:    r.opts.RunID,
		Scenario: sc.Name,
		Input:    sc.Input,
		Kind:     sc.Expect.Kind(),
		Expected: sc.Expect.String(),
	}
	l := r.log.With().Str("scenario", sc.Name).Logger()
	l.Debug().Str("input", sc.Input.String()).Msg("submitting form")

	if err := r.Submit(ctx, sc.Input); err != nil {
		res.Err = err
	} else {
		res.Observed, res.Err = r.Assert(ctx, sc.Expect)
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		res.Screenshot = r.captureFailure(sc.Name)
		l.Warn().Err(res.Err).Dur("took", res.Duration).Msg("scenario failed")
	} else {
		l.Info().Dur("took", res.Duration).Msg("scenario passed")
	}
	return res
}

// RunAll runs scenarios sequentially. It stops early only when ctx ends.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.Run(ctx, sc))
	}
	return results
}

// Submit opens the form, enters in and presses the submit button.
func (r *Runner) Submit(ctx context.Context, in booking.Input) error {
	steps := []struct {
		name string
		do   func() error
	}{
		{"open form", func() error { return r.driver.Goto(r.opts.BaseURL) }},
		{"set city", func() error { return r.driver.Fill(booking.FieldCity.Input(), in.City) }},
		{"clear date", func() error { return r.clearDate() }},
		{"set date", func() error { return r.driver.Fill(booking.FieldDate.Input(), in.Date) }},
		{"set name", func() error { return r.driver.Fill(booking.FieldName.Input(), in.FullName) }},
		{"set phone", func() error { return r.driver.Fill(booking.FieldPhone.Input(), in.Phone) }},
		{"toggle agreement", func() error {
			if !in.AgreementChecked {
				return nil
			}
			return r.driver.Click(booking.AgreementBox)
		}},
		{"submit", func() error { return r.driver.Click(booking.SubmitButton()) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.do(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (r *Runner) clearDate() error {
	sel := booking.FieldDate.Input()
	if err := r.driver.Press(sel, "Shift+Home"); err != nil {
		return err
	}
	return r.driver.Press(sel, "Delete")
}

// Assert checks the page against out after a submission and returns the
// observed text or class list of the asserted region.
func (r *Runner) Assert(ctx context.Context, out booking.Outcome) (string, error) {
	switch o := out.(type) {
	case booking.Success:
		return r.assertSuccess(ctx, o)
	case booking.FieldError:
		return r.assertFieldError(ctx, o)
	default:
		return "", fmt.Errorf("unsupported outcome %T", out)
	}
}

func (r *Runner) assertSuccess(ctx context.Context, o booking.Success) (string, error) {
	if err := r.driver.WaitVisible(booking.NotificationContent, r.opts.NotificationTimeout); err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			return "", err
		}
		return "", fmt.Errorf("wait for notification: %w", err)
	}
	return r.expectText(ctx, string(booking.FieldNotification), booking.NotificationContent, o.Message)
}

func (r *Runner) assertFieldError(ctx context.Context, o booking.FieldError) (string, error) {
	var (
		observed string
		err      error
	)
	if o.MarksInvalid() {
		observed, err = r.expectClass(ctx, string(o.Field), o.Field.Root(), booking.InvalidClass)
	} else {
		observed, err = r.expectText(ctx, string(o.Field), o.Field.Sub(), o.Message)
	}
	if err != nil {
		return observed, err
	}
	if err := r.expectNoNotification(); err != nil {
		return observed, err
	}
	return observed, nil
}

func (r *Runner) expectText(ctx context.Context, region, selector, want string) (string, error) {
	var (
		got     string
		readErr error
	)
	err := eventually(ctx, r.opts.AssertTimeout, r.opts.PollInterval, func() error {
		text, err := r.driver.Text(selector)
		if readErr = err; err != nil {
			return &AssertionError{Region: region, Expected: want, Actual: got, Cause: err}
		}
		got = text
		if !exactText(got, want) {
			return &AssertionError{Region: region, Expected: want, Actual: normalizeText(got)}
		}
		return nil
	})
	return normalizeText(got), r.readTimeout(ctx, err, region, readErr)
}

func (r *Runner) expectClass(ctx context.Context, region, selector, class string) (string, error) {
	var (
		got     []string
		readErr error
	)
	err := eventually(ctx, r.opts.AssertTimeout, r.opts.PollInterval, func() error {
		classes, err := r.driver.Classes(selector)
		if readErr = err; err != nil {
			return &AssertionError{Region: region, Expected: "class " + class, Actual: strings.Join(got, " "), Cause: err}
		}
		got = classes
		if !hasClass(got, class) {
			return &AssertionError{Region: region, Expected: "class " + class, Actual: strings.Join(got, " ")}
		}
		return nil
	})
	return strings.Join(got, " "), r.readTimeout(ctx, err, region, readErr)
}

// readTimeout reports a region whose last read timed out as never having
// appeared. A region that was read but differs stays an assertion error.
func (r *Runner) readTimeout(ctx context.Context, err error, region string, readErr error) error {
	if err == nil || ctx.Err() != nil || !isTimeout(readErr) {
		return err
	}
	return &TimeoutError{Region: region, State: "visible", Timeout: r.opts.AssertTimeout, Cause: readErr}
}

// expectNoNotification mirrors "should not appear": a hidden or absent
// notification passes immediately.
func (r *Runner) expectNoNotification() error {
	visible, err := r.driver.IsVisible(booking.NotificationRoot)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if visible {
		text, err := r.driver.Text(booking.NotificationContent)
		return &AssertionError{
			Region:   string(booking.FieldNotification),
			Expected: "hidden",
			Actual:   "visible: " + normalizeText(text),
			Cause:    err,
		}
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

func (r *Runner) captureFailure(name string) string {
	if !r.opts.Screenshots || r.opts.ArtifactsDir == "" {
		return ""
	}
	dir := filepath.Join(r.opts.ArtifactsDir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.log.Warn().Err(err).Msg("cannot create screenshot dir")
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", r.opts.RunID, unsafeName.ReplaceAllString(name, "_")))
	if err := r.driver.Screenshot(path); err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("screenshot failed")
		return ""
	}
	return path
}
