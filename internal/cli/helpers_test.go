package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/testutil"
)

// env is a CLI sandbox: its own database and config path, a
// deterministic clock and ids, and a scripted insight service. State
// carries over between runs like it would between real invocations.
type env struct {
	t       *testing.T
	dir     string
	db      string
	config  string
	clock   *testutil.DeterministicClock
	ids     *testutil.SequentialIDs
	insight *insight.Fake
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{
		t:      t,
		dir:    dir,
		db:     filepath.Join(dir, "blackbox.db"),
		config: filepath.Join(dir, "config.yaml"),
		clock:  testutil.NewDeterministicClock(testutil.Epoch, time.Minute),
		ids:    testutil.NewSequentialIDs("id"),
		insight: &insight.Fake{
			InsightsText:   "Pattern: calmer after familiar settings.",
			ForecastResult: insight.Forecast{AnxietyProbability: 0.1, WellBeingScore: 8},
		},
	}
}

type runResult struct {
	stdout string
	stderr string
	code   int
}

// run executes one CLI invocation against the sandbox.
func (e *env) run(args ...string) runResult {
	e.t.Helper()
	return e.runWithInput("", args...)
}

// runWithInput is run with stdin reading from input.
func (e *env) runWithInput(input string, args ...string) runResult {
	e.t.Helper()
	opts := &RootOptions{Clock: e.clock, IDs: e.ids, Insight: e.insight}
	cmd := newRootCommand(opts)
	cmd.SetIn(strings.NewReader(input))

	full := append(append([]string{}, args...), "--db", e.db, "--config", e.config)
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), cmd, opts, full, &stdout, &stderr)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// mustRun runs and requires exit code 0.
func (e *env) mustRun(args ...string) runResult {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, ExitSuccess, r.code, "args %v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r
}

// runJSON runs with --format json and decodes the response data into dst.
func (e *env) runJSON(dst any, args ...string) CLIResponse {
	e.t.Helper()
	r := e.run(append(args, "--format", "json")...)
	var resp CLIResponse
	if dst != nil {
		resp.Data = dst
	}
	require.NoError(e.t, json.Unmarshal([]byte(r.stdout), &resp), "stdout: %s\nstderr: %s", r.stdout, r.stderr)
	return resp
}

// login signs in as a@b.com.
func (e *env) login() {
	e.t.Helper()
	e.mustRun("login", "a@b.com")
}

// newSession starts a session and returns its id.
func (e *env) newSession(args ...string) string {
	e.t.Helper()
	var res NewSessionResult
	resp := e.runJSON(&res, append([]string{"session", "new"}, args...)...)
	require.Equal(e.t, "ok", resp.Status, "error: %+v", resp.Error)
	require.NotNil(e.t, res.Session)
	return res.Session.ID
}
