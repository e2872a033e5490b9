package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/browser"
	"github.com/netology-qa/card-delivery-e2e/internal/logging"
	"github.com/netology-qa/card-delivery-e2e/internal/report"
	"github.com/netology-qa/card-delivery-e2e/internal/runner"
	"github.com/netology-qa/card-delivery-e2e/internal/scenario"
	"github.com/netology-qa/card-delivery-e2e/internal/stubapp"
	"github.com/netology-qa/card-delivery-e2e/tests/e2e/config"
)

// errScenariosFailed makes the process exit with status 1 without printing
// a second error after the summary.
var errScenariosFailed = errors.New("scenarios failed")

const (
	exitFailed = 1
	exitError  = 2
)

func exitCode(err error) int {
	if errors.Is(err, errScenariosFailed) {
		return exitFailed
	}
	return exitError
}

var (
	catalogFlag     string
	onlyFlag        []string
	reportFlags     []string
	metricsFileFlag string
	stubFlag        bool
	installFlag     bool

	probeFromFlag int
	probeToFlag   int

	stubAddrFlag      string
	stubDelayFlag     time.Duration
	stubMinOffsetFlag int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the booking scenarios against the form",
	Long: `Run submits every scenario of the catalog in order and checks the outcome.

Each scenario reloads the form, so scenarios are independent and a run can
be repeated. Reports are written in the format implied by each --report
extension (.json, .md, .html, .xlsx).`,
	RunE: runScenarios,
}

var probeDatesCmd = &cobra.Command{
	Use:   "probe-dates",
	Short: "Find the earliest day offset the form accepts",
	RunE:  runProbe,
}

var serveStubCmd = &cobra.Command{
	Use:   "serve-stub",
	Short: "Serve a local stub of the booking form",
	RunE:  runServeStub,
}

func init() {
	runCmd.Flags().StringVar(&catalogFlag, "catalog", "", "Scenario catalog YAML (default: built-in)")
	runCmd.Flags().StringSliceVar(&onlyFlag, "only", nil, "Run only scenarios with these names or tags")
	runCmd.Flags().StringSliceVar(&reportFlags, "report", nil, "Write a report to this path (repeatable)")
	runCmd.Flags().StringVar(&metricsFileFlag, "metrics-file", "", "Write Prometheus metrics in textfile format")
	runCmd.Flags().BoolVar(&stubFlag, "stub", false, "Start the stub application and run against it")
	runCmd.Flags().BoolVar(&installFlag, "install", false, "Install Playwright browsers before running")

	probeDatesCmd.Flags().IntVar(&probeFromFlag, "from", 0, "First day offset to try")
	probeDatesCmd.Flags().IntVar(&probeToFlag, "to", 7, "Last day offset to try")
	probeDatesCmd.Flags().BoolVar(&stubFlag, "stub", false, "Probe the stub application")
	probeDatesCmd.Flags().BoolVar(&installFlag, "install", false, "Install Playwright browsers before probing")

	serveStubCmd.Flags().StringVar(&stubAddrFlag, "addr", "127.0.0.1:9999", "Listen address")
	serveStubCmd.Flags().DurationVar(&stubDelayFlag, "delay", 2*time.Second, "Delay before a successful response")
	serveStubCmd.Flags().IntVar(&stubMinOffsetFlag, "min-offset", stubapp.DefaultMinOffsetDays, "Earliest accepted day offset")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// session bundles the browser and optional stub for one command.
type session struct {
	cfg     *config.TestConfig
	browser *browser.Session
	runner  *runner.Runner
	stop    func()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, cfg.LogLevel)
	s := &session{cfg: cfg, stop: func() {}}

	if stubFlag {
		stubCtx, cancel := context.WithCancel(ctx)
		addr, done, err := startStub(stubCtx, "127.0.0.1:0", stubapp.Options{Rules: stubapp.DefaultRules(), Delay: 500 * time.Millisecond})
		if err != nil {
			cancel()
			return nil, err
		}
		cfg.BaseURL = "http://" + addr
		s.stop = func() {
			cancel()
			<-done
		}
	}

	opts := browser.Options{
		Browser:  cfg.Browser,
		Headless: cfg.Headless,
		SlowMo:   cfg.SlowMo,
		Timeout:  cfg.Timeout,
		Install:  installFlag,
	}
	if cfg.Videos {
		opts.VideoDir = filepath.Join(cfg.ArtifactsDir, "videos")
	}
	bs, err := browser.Launch(opts)
	if err != nil {
		s.stop()
		return nil, err
	}
	s.browser = bs
	s.runner = runner.New(runner.NewPlaywrightDriver(bs.Page, 500*time.Millisecond), runner.Options{
		BaseURL:             cfg.BaseURL,
		NotificationTimeout: cfg.NotificationTimeout,
		AssertTimeout:       cfg.AssertTimeout,
		ArtifactsDir:        cfg.ArtifactsDir,
		Screenshots:         cfg.Screenshots,
	})
	return s, nil
}

func (s *session) Close() {
	l := logging.For("cli")
	if s.cfg.HoldBrowserOpen && !s.cfg.Headless {
		l.Info().Msg("hold_browser_open set; press Ctrl+C to close the browser")
		ctx, cancel := signalContext()
		<-ctx.Done()
		cancel()
	}
	if err := s.browser.Close(); err != nil {
		l.Warn().Err(err).Msg("browser teardown")
	}
	s.stop()
}

func loadCatalog() (*scenario.Catalog, error) {
	if catalogFlag == "" {
		return scenario.Default()
	}
	return scenario.Load(catalogFlag)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	l := logging.For("cli")
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	catalog = catalog.Select(onlyFlag...)
	if len(catalog.Scenarios) == 0 {
		return fmt.Errorf("no scenarios match %s", strings.Join(onlyFlag, ", "))
	}
	scenarios, err := catalog.Resolve(booking.SystemClock)
	if err != nil {
		return err
	}
	for _, path := range reportFlags {
		if _, err := report.FormatForPath(path); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	started := time.Now()
	l.Info().Str("base_url", s.cfg.BaseURL).Int("scenarios", len(scenarios)).Str("run_id", s.runner.RunID()).Msg("starting run")
	results := s.runner.RunAll(ctx, scenarios)
	summary := report.Summarize(s.runner.RunID(), s.cfg.BaseURL, started, results)

	for _, e := range summary.Entries {
		mark := "✅"
		if !e.Passed {
			mark = "❌"
		}
		fmt.Printf("%s %s (%s)\n", mark, e.Scenario, e.Duration.Round(time.Millisecond))
		if !e.Passed {
			fmt.Printf("   expected %s\n   observed %q\n   %s\n", e.Expected, e.Observed, e.Error)
		}
	}
	fmt.Printf("\n%d passed, %d failed\n", summary.Passed, summary.Failed)

	for _, path := range reportFlags {
		if err := report.WriteFile(path, summary); err != nil {
			return err
		}
		l.Info().Str("path", path).Msg("report written")
	}
	if metricsFileFlag != "" {
		m := report.NewMetrics()
		m.Observe(summary)
		if err := m.WriteTextfile(metricsFileFlag); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !summary.OK() {
		return errScenariosFailed
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	offset, probes, err := s.runner.ProbeMinOffset(ctx, booking.SystemClock, probeFromFlag, probeToFlag)
	for _, p := range probes {
		verdict := "rejected"
		if p.Accepted {
			verdict = "accepted"
		}
		fmt.Printf("%+d days  %s  %s  %q\n", p.Offset, p.Date, verdict, p.Observed)
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nEarliest accepted offset: %d days\n", offset)
	return nil
}

func runServeStub(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rules := stubapp.DefaultRules()
	rules.MinOffsetDays = stubMinOffsetFlag
	addr, done, err := startStub(ctx, stubAddrFlag, stubapp.Options{Rules: rules, Delay: stubDelayFlag})
	if err != nil {
		return err
	}
	fmt.Printf("🚀 Stub form at http://%s (Ctrl+C to stop)\n", addr)
	return <-done
}

// startStub runs the stub until ctx ends. done receives Serve's result.
func startStub(ctx context.Context, addr string, opts stubapp.Options) (string, <-chan error, error) {
	srv, err := stubapp.New(opts)
	if err != nil {
		return "", nil, err
	}
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, addr, ready) }()

	select {
	case bound := <-ready:
		return bound, done, nil
	case err := <-done:
		return "", nil, err
	}
}
