// Package scenario loads scenario catalogs: YAML files listing form inputs
// and the outcome each submission should produce.
package scenario

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/runner"
)

var (
	//go:embed default.yaml
	defaultCatalog []byte
	//go:embed schema.json
	schemaJSON []byte

	schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)
)

// InputSpec is a partial form input. Unset fields come from the catalog
// defaults.
type InputSpec struct {
	City       *string `yaml:"city"`
	Date       *string `yaml:"date"`
	DateOffset *int    `yaml:"date_offset"`
	Name       *string `yaml:"name"`
	Phone      *string `yaml:"phone"`
	Agreement  *bool   `yaml:"agreement"`
}

// ExpectSpec describes the expected outcome. A success message may use the
// {date} placeholder; when empty the standard notification text is used.
type ExpectSpec struct {
	Success bool   `yaml:"success"`
	Field   string `yaml:"field"`
	Message string `yaml:"message"`
	Invalid bool   `yaml:"invalid"`
}

// Entry is one scenario of the catalog.
type Entry struct {
	Name   string     `yaml:"name"`
	Tags   []string   `yaml:"tags"`
	Input  InputSpec  `yaml:"input"`
	Expect ExpectSpec `yaml:"expect"`
}

// Catalog is a parsed scenario file.
type Catalog struct {
	Version   int       `yaml:"version"`
	Defaults  InputSpec `yaml:"defaults"`
	Scenarios []Entry   `yaml:"scenarios"`
}

// Default returns the built-in catalog covering the six form paths.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, e := range c.Scenarios {
		if seen[e.Name] {
			return nil, fmt.Errorf("duplicate scenario %q", e.Name)
		}
		seen[e.Name] = true
	}
	return &c, nil
}

func validate(doc map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
}

// Select keeps the scenarios whose name or one of whose tags is listed.
// No filters keeps everything.
func (c *Catalog) Select(filters ...string) *Catalog {
	if len(filters) == 0 {
		return c
	}
	want := make(map[string]bool, len(filters))
	for _, f := range filters {
		want[strings.TrimSpace(f)] = true
	}
	out := &Catalog{Version: c.Version, Defaults: c.Defaults}
	for _, e := range c.Scenarios {
		if want[e.Name] {
			out.Scenarios = append(out.Scenarios, e)
			continue
		}
		for _, tag := range e.Tags {
			if want[tag] {
				out.Scenarios = append(out.Scenarios, e)
				break
			}
		}
	}
	return out
}

// Resolve turns entries into runnable scenarios with dates computed from now.
func (c *Catalog) Resolve(now booking.Clock) ([]runner.Scenario, error) {
	out := make([]runner.Scenario, 0, len(c.Scenarios))
	for _, e := range c.Scenarios {
		in, err := c.input(e.Input, now)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", e.Name, err)
		}
		expect, err := outcome(e.Expect, in)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", e.Name, err)
		}
		out = append(out, runner.Scenario{Name: e.Name, Input: in, Expect: expect})
	}
	return out, nil
}

func (c *Catalog) input(spec InputSpec, now booking.Clock) (booking.Input, error) {
	merged := c.Defaults.merge(spec)
	in := booking.Input{
		City:             deref(merged.City),
		FullName:         deref(merged.Name),
		Phone:            deref(merged.Phone),
		AgreementChecked: merged.Agreement != nil && *merged.Agreement,
	}
	switch {
	case spec.Date != nil:
		in.Date = *spec.Date
	case spec.DateOffset != nil:
		in.Date = booking.DateWithOffset(now, *spec.DateOffset)
	case merged.Date != nil:
		in.Date = *merged.Date
	case merged.DateOffset != nil:
		in.Date = booking.DateWithOffset(now, *merged.DateOffset)
	default:
		return in, fmt.Errorf("no date or date_offset given")
	}
	return in, nil
}

func outcome(spec ExpectSpec, in booking.Input) (booking.Outcome, error) {
	if spec.Success {
		if spec.Message == "" {
			return booking.ExpectSuccess(in.Date), nil
		}
		return booking.Success{Message: strings.ReplaceAll(spec.Message, "{date}", in.Date)}, nil
	}
	field, err := booking.ParseField(spec.Field)
	if err != nil {
		return nil, err
	}
	if spec.Invalid {
		return booking.FieldError{Field: field}, nil
	}
	if spec.Message == "" {
		return nil, fmt.Errorf("field %s needs a message or invalid: true", field)
	}
	return booking.FieldError{Field: field, Message: spec.Message}, nil
}

// merge overlays o on s.
func (s InputSpec) merge(o InputSpec) InputSpec {
	if o.City != nil {
		s.City = o.City
	}
	if o.Date != nil {
		s.Date = o.Date
	}
	if o.DateOffset != nil {
		s.DateOffset = o.DateOffset
	}
	if o.Name != nil {
		s.Name = o.Name
	}
	if o.Phone != nil {
		s.Phone = o.Phone
	}
	if o.Agreement != nil {
		s.Agreement = o.Agreement
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
