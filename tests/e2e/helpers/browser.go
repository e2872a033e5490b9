package helpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/netology-qa/card-delivery-e2e/internal/browser"
	"github.com/netology-qa/card-delivery-e2e/internal/runner"
	"github.com/netology-qa/card-delivery-e2e/internal/stubapp"
	"github.com/netology-qa/card-delivery-e2e/tests/e2e/config"
)

// BrowserHelper provides browser setup and teardown for tests
type BrowserHelper struct {
	Session *browser.Session
	Page    playwright.Page
	Config  *config.TestConfig
	BaseURL string
	t       *testing.T
}

// NewBrowserHelper creates a new browser helper instance
func NewBrowserHelper(t *testing.T) *BrowserHelper {
	cfg := config.GetConfig()
	return &BrowserHelper{
		Config:  cfg,
		BaseURL: cfg.BaseURL,
		t:       t,
	}
}

// Setup initializes the browser and creates a new page. Tests are skipped,
// not failed, when browsers are disabled or Playwright cannot start.
func (b *BrowserHelper) Setup() {
	b.t.Helper()
	if os.Getenv("SKIP_BROWSER") == "true" {
		b.t.Skip("Skipping browser test")
	}
	if os.Getenv("E2E_STUB") == "true" {
		b.BaseURL = StartStub(b.t, stubapp.Options{Rules: stubapp.DefaultRules(), Delay: 500 * time.Millisecond})
	}

	opts := browser.Options{
		Browser:  b.Config.Browser,
		Headless: b.Config.Headless,
		SlowMo:   b.Config.SlowMo,
		Timeout:  b.Config.Timeout,
		Install:  os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1",
	}
	if b.Config.Videos {
		opts.VideoDir = filepath.Join(b.Config.ArtifactsDir, "videos")
	}
	session, err := browser.Launch(opts)
	if err != nil {
		b.t.Skipf("Could not start Playwright: %v (browsers may not be installed)", err)
	}
	b.Session = session
	b.Page = session.Page
	b.t.Cleanup(b.TearDown)
}

// TearDown closes the browser and cleans up resources
func (b *BrowserHelper) TearDown() {
	if b.Session == nil {
		return
	}
	if b.t.Failed() && b.Config.Screenshots && b.Page != nil {
		dir := filepath.Join(b.Config.ArtifactsDir, "screenshots")
		_ = os.MkdirAll(dir, 0o755)
		name := strings.NewReplacer("/", "_", " ", "_").Replace(b.t.Name())
		_, _ = b.Page.Screenshot(playwright.PageScreenshotOptions{
			Path: playwright.String(filepath.Join(dir, fmt.Sprintf("%s_%d.png", name, time.Now().Unix()))),
		})
	}
	if b.Config.HoldBrowserOpen && !b.Config.Headless {
		b.t.Log("hold_browser_open set; leaving the browser running")
		return
	}
	if err := b.Session.Close(); err != nil {
		b.t.Logf("browser teardown: %v", err)
	}
	b.Session = nil
}

// Runner returns a form runner on the helper's page.
func (b *BrowserHelper) Runner() *runner.Runner {
	return runner.New(runner.NewPlaywrightDriver(b.Page, 500*time.Millisecond), runner.Options{
		BaseURL:             b.BaseURL,
		NotificationTimeout: b.Config.NotificationTimeout,
		AssertTimeout:       b.Config.AssertTimeout,
		ArtifactsDir:        b.Config.ArtifactsDir,
		Screenshots:         b.Config.Screenshots,
	})
}

// StartStub serves the stub application on a loopback port for the rest of
// the test and returns its base URL.
func StartStub(t *testing.T, opts stubapp.Options) string {
	t.Helper()
	srv, err := stubapp.New(opts)
	if err != nil {
		t.Fatalf("stub application: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0", ready) }()

	select {
	case addr := <-ready:
		t.Cleanup(func() {
			cancel()
			<-done
		})
		return "http://" + addr
	case err := <-done:
		cancel()
		t.Fatalf("stub application did not start: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("stub application did not start in time")
	}
	return ""
}
