// Package browser starts and stops Playwright browser sessions.
package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/netology-qa/card-delivery-e2e/internal/logging"
)

// Options configures a Session.
type Options struct {
	// Browser is chromium, firefox or webkit.
	Browser  string
	Headless bool
	// SlowMo delays every Playwright operation, in milliseconds.
	SlowMo  int
	Timeout time.Duration
	// VideoDir enables video recording into the directory when set.
	VideoDir string
	// Install downloads the driver and browser before starting.
	Install bool
}

// Session owns one Playwright process, browser, context and page.
type Session struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
	Context    playwright.BrowserContext
	Page       playwright.Page
}

// Install downloads the Playwright driver and the named browsers.
func Install(browsers ...string) error {
	if len(browsers) == 0 {
		browsers = []string{"chromium"}
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
		return fmt.Errorf("could not install playwright browsers: %w", err)
	}
	return nil
}

// Launch starts a browser with a single page.
func Launch(opts Options) (*Session, error) {
	l := logging.For("browser")
	if opts.Browser == "" {
		opts.Browser = "chromium"
	}
	if opts.Install {
		if err := Install(opts.Browser); err != nil {
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		// The driver may be missing on a fresh machine.
		if ierr := Install(opts.Browser); ierr != nil {
			return nil, fmt.Errorf("could not start playwright: %w", errors.Join(err, ierr))
		}
		if pw, err = playwright.Run(); err != nil {
			return nil, fmt.Errorf("could not start playwright after install: %w", err)
		}
	}
	s := &Session{Playwright: pw}

	bt, err := browserType(pw, opts.Browser)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Browser, err = bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo)),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not launch %s: %w", opts.Browser, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 720},
		Locale:   playwright.String("ru-RU"),
	}
	if opts.VideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.VideoDir}
	}
	s.Context, err = s.Browser.NewContext(ctxOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	s.Page, err = s.Context.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	if opts.Timeout > 0 {
		s.Page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}
	l.Debug().Str("browser", opts.Browser).Bool("headless", opts.Headless).Msg("browser session started")
	return s, nil
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser %q", name)
	}
}

// Close releases everything the session started, newest first.
func (s *Session) Close() error {
	var errs []error
	if s.Page != nil {
		errs = append(errs, s.Page.Close())
	}
	if s.Context != nil {
		errs = append(errs, s.Context.Close())
	}
	if s.Browser != nil {
		errs = append(errs, s.Browser.Close())
	}
	if s.Playwright != nil {
		errs = append(errs, s.Playwright.Stop())
	}
	return errors.Join(errs...)
}
