package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format is a report file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("no report format for %q", path)
	}
}

// WriteFile writes s to path in the format implied by its extension.
func WriteFile(path string, s *Summary) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Write(f, format, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write renders s to w.
func Write(w io.Writer, format Format, s *Summary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(s))
		return err
	case FormatHTML:
		page, err := HTML(s)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	case FormatXLSX:
		return writeXLSX(w, s)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// Markdown renders s as a Markdown document with one table row per scenario.
func Markdown(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Card delivery form run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Target: %s\n", s.BaseURL)
	fmt.Fprintf(&b, "- Started: %s\n", s.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Passed: %d, failed: %d\n\n", s.Passed, s.Failed)
	b.WriteString("| Scenario | Result | Expected | Observed | Error | Time |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range s.Entries {
		result := "PASS"
		if !e.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(e.Scenario), result, cell(e.Expected), cell(e.Observed), cell(e.Error),
			e.Duration.Round(time.Millisecond))
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// HTML renders the Markdown report to a standalone page. Observed texts come
// from the page under test, so the body is sanitised.
func HTML(s *Summary) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(s)), &body); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	clean := bluemonday.UGCPolicy().Sanitize(body.String())
	return "<!DOCTYPE html>\n<html lang=\"ru\"><head><meta charset=\"utf-8\"><title>Run " +
		bluemonday.StrictPolicy().Sanitize(s.RunID) + "</title></head><body>\n" + clean + "</body></html>\n", nil
}

var xlsxHeader = []any{"Scenario", "Kind", "Passed", "Expected", "Observed", "Error kind", "Error", "Duration (ms)", "Screenshot"}

func writeXLSX(w io.Writer, s *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range s.Entries {
		row := []any{
			e.Scenario, e.Kind, e.Passed, e.Expected, e.Observed, e.ErrorKind, e.Error,
			e.Duration.Milliseconds(), e.Screenshot,
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
