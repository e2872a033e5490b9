package runner

import "time"

// Driver is the slice of browser automation the runner needs. Selectors are
// Playwright selectors.
type Driver interface {
	Goto(url string) error
	Fill(selector, value string) error
	Press(selector, key string) error
	Click(selector string) error
	// Text returns the visible text of the first match.
	Text(selector string) (string, error)
	// Classes returns the class list of the first match.
	Classes(selector string) ([]string, error)
	// WaitVisible blocks until the first match is visible. It returns a
	// *TimeoutError when the deadline passes.
	WaitVisible(selector string, timeout time.Duration) error
	IsVisible(selector string) (bool, error)
	Screenshot(path string) error
}
