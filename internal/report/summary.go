// Package report turns scenario results into run summaries, report files and
// metrics.
package report

import (
	"time"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/runner"
	"github.com/netology-qa/card-delivery-e2e/internal/version"
)

// Entry is the serialisable form of one runner.Result.
type Entry struct {
	Scenario   string        `json:"scenario"`
	Input      booking.Input `json:"input"`
	Kind       string        `json:"kind"`
	Passed     bool          `json:"passed"`
	Expected   string        `json:"expected"`
	Observed   string        `json:"observed,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Screenshot string        `json:"screenshot,omitempty"`
}

// Summary aggregates one run.
type Summary struct {
	RunID    string        `json:"run_id"`
	BaseURL  string        `json:"base_url"`
	Tool     version.Info  `json:"tool"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Entries  []Entry       `json:"entries"`
}

// OK reports whether every scenario passed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// Summarize builds a summary from results.
func Summarize(runID, baseURL string, started time.Time, results []runner.Result) *Summary {
	s := &Summary{RunID: runID, BaseURL: baseURL, Tool: version.GetInfo(), Started: started}
	for _, r := range results {
		e := Entry{
			Scenario:   r.Scenario,
			Input:      r.Input,
			Kind:       string(r.Kind),
			Passed:     r.Passed(),
			Expected:   r.Expected,
			Observed:   r.Observed,
			Duration:   r.Duration,
			Screenshot: r.Screenshot,
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
			e.ErrorKind = ErrorKind(r.Err)
			s.Failed++
		} else {
			s.Passed++
		}
		s.Duration += r.Duration
		s.Entries = append(s.Entries, e)
	}
	return s
}
