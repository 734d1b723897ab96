package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/blackbox/internal/export"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Steps    []StepRecord // Executed steps for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSteps:\n")
	for _, step := range e.Steps {
		fmt.Fprintf(&buf, "  [%d] %s -> %s\n", step.Index, step.Op, step.Outcome)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the harness state and
// returns one message per failure.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(h, a); err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Steps = result.Steps
			}
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(h *Harness, a Assertion) error {
	switch a.Type {
	case AssertProfileCount:
		n := 0
		if u := h.journal.User(); u != nil {
			n = len(u.Profiles)
		}
		return expectCount(a, n)

	case AssertActiveProfileName:
		name := "<none>"
		if p := h.journal.ActiveProfile(); p != nil {
			name = p.Name
		}
		if name != a.Name {
			return mismatch(a, a.Name, name)
		}
		return nil

	case AssertSessionField:
		return assertSessionField(h, a)

	case AssertDraftAbsent:
		if d := h.journal.Draft(); d != nil {
			return mismatch(a, "no draft", "draft present")
		}
		return nil

	case AssertBaselineCount:
		n := 0
		if p := h.journal.ActiveProfile(); p != nil {
			n = len(p.Baselines)
		}
		return expectCount(a, n)

	case AssertCSVLines:
		var buf bytes.Buffer
		if err := export.CSV(&buf, h.history()); err != nil {
			return err
		}
		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		return expectCount(a, len(lines))

	case AssertInsightText:
		want := fmt.Sprint(a.Equals)
		if h.lastInsight != want {
			return mismatch(a, fmt.Sprintf("%q", want), fmt.Sprintf("%q", h.lastInsight))
		}
		return nil

	case AssertTutorialCompleted:
		got := false
		if u := h.journal.User(); u != nil {
			got = u.TutorialCompleted
		}
		return expectJSON(a, a.Equals, got)

	case AssertForecastWellBeing:
		if h.lastForecast == nil {
			return mismatch(a, fmt.Sprint(a.Equals), "no forecast requested")
		}
		return expectJSON(a, a.Equals, h.lastForecast.WellBeingScore)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertSessionField compares one value of the session's JSON form.
// Field is a dotted path such as "phaseC.oneDay.wellBeing".
func assertSessionField(h *Harness, a Assertion) error {
	sess, err := h.journal.Session(a.Session)
	if err != nil {
		return mismatch(a, "session "+a.Session, err.Error())
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return err
	}

	for _, part := range strings.Split(a.Field, ".") {
		obj, ok := tree.(map[string]any)
		if !ok {
			tree = nil
			break
		}
		tree = obj[part]
	}
	return expectJSON(a, a.Equals, tree)
}

// expectJSON compares want and got by their JSON encodings, so a YAML
// integer matches a decoded float of the same value.
func expectJSON(a Assertion, want, got any) error {
	w, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("encode expected value: %w", err)
	}
	g, err := json.Marshal(got)
	if err != nil {
		return fmt.Errorf("encode actual value: %w", err)
	}
	if !bytes.Equal(w, g) {
		return mismatch(a, string(w), string(g))
	}
	return nil
}

func expectCount(a Assertion, got int) error {
	if *a.Count != got {
		return mismatch(a, fmt.Sprint(*a.Count), fmt.Sprint(got))
	}
	return nil
}

func mismatch(a Assertion, expected, actual string) *AssertionError {
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual}
}
