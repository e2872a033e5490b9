package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver implements Driver on a Playwright page.
type PlaywrightDriver struct {
	page playwright.Page
	// readTimeout bounds single reads so polling stays responsive.
	readTimeout time.Duration
}

// NewPlaywrightDriver wraps page. readTimeout bounds each Text/Classes call.
func NewPlaywrightDriver(page playwright.Page, readTimeout time.Duration) *PlaywrightDriver {
	if readTimeout <= 0 {
		readTimeout = 500 * time.Millisecond
	}
	return &PlaywrightDriver{page: page, readTimeout: readTimeout}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (d *PlaywrightDriver) Goto(url string) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil && strings.Contains(err.Error(), "ERR_CONNECTION_REFUSED") {
		return fmt.Errorf("application under test is not listening at %s: %w", url, err)
	}
	return err
}

func (d *PlaywrightDriver) Fill(selector, value string) error {
	return d.page.Locator(selector).First().Fill(value)
}

func (d *PlaywrightDriver) Press(selector, key string) error {
	return d.page.Locator(selector).First().Press(key)
}

func (d *PlaywrightDriver) Click(selector string) error {
	return d.page.Locator(selector).First().Click()
}

func (d *PlaywrightDriver) Text(selector string) (string, error) {
	text, err := d.page.Locator(selector).First().InnerText(playwright.LocatorInnerTextOptions{
		Timeout: ms(d.readTimeout),
	})
	return text, d.timeout(selector, d.readTimeout, err)
}

func (d *PlaywrightDriver) Classes(selector string) ([]string, error) {
	class, err := d.page.Locator(selector).First().GetAttribute("class", playwright.LocatorGetAttributeOptions{
		Timeout: ms(d.readTimeout),
	})
	if err != nil {
		return nil, d.timeout(selector, d.readTimeout, err)
	}
	return strings.Fields(class), nil
}

func (d *PlaywrightDriver) WaitVisible(selector string, timeout time.Duration) error {
	err := d.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
	return d.timeout(selector, timeout, err)
}

// timeout turns a Playwright timeout into a *TimeoutError for selector.
func (d *PlaywrightDriver) timeout(selector string, after time.Duration, err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return &TimeoutError{Region: selector, State: "visible", Timeout: after, Cause: err}
	}
	return err
}

func (d *PlaywrightDriver) IsVisible(selector string) (bool, error) {
	return d.page.Locator(selector).First().IsVisible()
}

func (d *PlaywrightDriver) Screenshot(path string) error {
	_, err := d.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

var _ Driver = (*PlaywrightDriver)(nil)
