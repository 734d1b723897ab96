package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blackbox/internal/domain"
)

// Scenario is one scripted journal run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ClockStart is the first timestamp the clock hands out.
	// Zero defaults to testutil.Epoch.
	ClockStart time.Time `yaml:"clock_start,omitempty"`

	// Insight scripts the insight service. Nil means a service that
	// answers with empty results.
	Insight *InsightFixture `yaml:"insight,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// InsightFixture scripts the fake insight service.
type InsightFixture struct {
	// Error, when set, makes every call fail with this message.
	Error string `yaml:"error,omitempty"`

	Text               string  `yaml:"text,omitempty"`
	AnxietyProbability float64 `yaml:"anxiety_probability,omitempty"`
	WellBeingScore     float64 `yaml:"well_being_score,omitempty"`
}

// Step invokes one operation.
type Step struct {
	// Op is the operation name, e.g. "add_session".
	Op string `yaml:"op"`

	// Args are the operation arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// ExpectError is the error code the step must fail with. Empty means
	// the step must succeed.
	ExpectError domain.ErrorCode `yaml:"expect_error,omitempty"`
}

// Assertion checks the state after all steps ran.
type Assertion struct {
	Type string `yaml:"type"`

	// Count is used by profile_count, baseline_count and csv_lines.
	Count *int `yaml:"count,omitempty"`

	// Name is used by active_profile_name.
	Name string `yaml:"name,omitempty"`

	// Session and Field select a value for session_field; Field is a
	// dotted path over the session's JSON form.
	Session string `yaml:"session,omitempty"`
	Field   string `yaml:"field,omitempty"`

	// Equals is the expected value for session_field, insight_text,
	// tutorial_completed and forecast_well_being.
	Equals any `yaml:"equals,omitempty"`
}

// Assertion type constants.
const (
	AssertProfileCount      = "profile_count"
	AssertActiveProfileName = "active_profile_name"
	AssertSessionField      = "session_field"
	AssertDraftAbsent       = "draft_absent"
	AssertBaselineCount     = "baseline_count"
	AssertCSVLines          = "csv_lines"
	AssertInsightText       = "insight_text"
	AssertTutorialCompleted = "tutorial_completed"
	AssertForecastWellBeing = "forecast_well_being"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := operations[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertProfileCount, AssertBaselineCount, AssertCSVLines:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertActiveProfileName:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for %s", index, a.Type)
		}
	case AssertSessionField:
		if a.Session == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: session and field are required for %s", index, a.Type)
		}
	case AssertInsightText, AssertTutorialCompleted, AssertForecastWellBeing:
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for %s", index, a.Type)
		}
	case AssertDraftAbsent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
