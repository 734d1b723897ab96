package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/blackbox/internal/domain"
)

// Snapshot returns the canonical JSON of the result's final user, or
// "null" when nobody logged in.
func Snapshot(result *Result) ([]byte, error) {
	if result.User == nil {
		return []byte("null"), nil
	}
	return domain.MarshalCanonical(result.User)
}

// RunWithGolden executes a scenario and compares the final user against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass and Errors. Test failure
// (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
