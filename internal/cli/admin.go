package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/config"
	"github.com/roach88/blackbox/internal/harness"
	"github.com/roach88/blackbox/internal/store"
)

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a browser local-storage export",
		Long: `Replace the journal with a JSON export of the browser build's local
storage (keys flight_recorder_user, flight_recorder_draft and
flight_recorder_dark). The replaced journal stays available to restore.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open import file", err)
			}
			defer f.Close()

			dump, err := store.ParseBrowserDump(f)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to parse import file", err)
			}
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				u, err := a.journal.ImportBrowserDump(ctx, dump)
				if err != nil {
					return err
				}
				v := userView(u)
				return a.out.Render(v, func(w io.Writer) error {
					fmt.Fprintf(w, "Imported %s with %d profiles.\n", v.Email, v.Profiles)
					return nil
				})
			})
		},
	}
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [revision]",
		Short: "List or restore earlier versions of the journal",
		Long: `Without an argument, list the stored revisions of the journal. With a
revision number, make that revision current again. Restoring writes a new
revision, so it can itself be undone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if len(args) == 0 {
					revs, err := a.backend.Revisions(ctx, store.KeyUser)
					if err != nil {
						return err
					}
					return a.out.Render(revs, func(w io.Writer) error {
						if len(revs) == 0 {
							fmt.Fprintln(w, "No revisions.")
							return nil
						}
						for _, r := range revs {
							fmt.Fprintf(w, "%6d  %s  %s\n", r.Seq, r.WrittenAt.Local().Format(time.RFC3339), r.ContentHash[:12])
						}
						return nil
					})
				}

				seq, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid revision %q", args[0]))
				}
				u, err := a.journal.RestoreUserRevision(ctx, seq)
				if err != nil {
					return err
				}
				v := userView(u)
				return a.out.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Restored revision %d.\n", seq)
					return err
				})
			})
		},
	}
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(opts))
	cmd.AddCommand(newConfigShowCommand(opts))
	return cmd
}

func configPath(opts *RootOptions) (string, error) {
	if opts.Config != "" {
		return opts.Config, nil
	}
	p, err := config.DefaultPath()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to locate config", err)
	}
	return p, nil
}

func newConfigInitCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewExitError(ExitFailure, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return WrapExitError(ExitCommandError, "failed to check config", err)
			}
			if err := config.WriteConfig(path, config.DefaultConfig()); err != nil {
				return WrapExitError(ExitCommandError, "failed to write config", err)
			}
			return opts.output(cmd).Render(FileView{Path: path}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Wrote %s\n", path)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Insight.APIKey != "" {
				shown.Insight.APIKey = "********"
			}
			return opts.output(cmd).Render(shown, func(w io.Writer) error {
				fmt.Fprintf(w, "database:          %s\n", shown.Database)
				fmt.Fprintf(w, "autosave_interval: %s\n", shown.AutosaveInterval)
				fmt.Fprintf(w, "log_level:         %s\n", shown.LogLevel)
				fmt.Fprintf(w, "log_format:        %s\n", shown.LogFormat)
				fmt.Fprintf(w, "insight.enabled:   %t\n", cfg.Insight.APIKey != "")
				fmt.Fprintf(w, "insight.base_url:  %s\n", shown.Insight.BaseURL)
				fmt.Fprintf(w, "insight.timeout:   %s\n", shown.Insight.Timeout)
				return nil
			})
		},
	}
}

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioRun holds the overall result.
type ScenarioRun struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <scenarios-dir>",
		Short: "Run journal scenarios",
		Long: `Run YAML scenarios against a fresh in-memory journal each.

Each scenario drives the journal through its steps and checks its
assertions. When <dir>/golden/<name>.golden exists, the final journal must
also match it byte for byte. The real database is never touched.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  blackbox scenario ./testdata/scenarios
  blackbox scenario ./testdata/scenarios --filter "draft_*"
  blackbox scenario ./testdata/scenarios --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	return cmd
}

func runScenarios(cmd *cobra.Command, opts *ScenarioOptions, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	run := ScenarioRun{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		res := runScenarioFile(ctx, file, opts.Update)
		run.Scenarios = append(run.Scenarios, res)
		if res.Pass {
			run.Passed++
		} else {
			run.Failed++
		}
		if text {
			if res.Pass {
				fmt.Fprintf(w, "✓ %s\n", res.Name)
			} else {
				fmt.Fprintf(w, "✗ %s\n", res.Name)
				for _, e := range res.Errors {
					fmt.Fprintf(w, "  %s\n", e)
				}
			}
		}
	}

	if text {
		if run.Total == 0 {
			fmt.Fprintln(w, "No scenarios found.")
		} else {
			fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", run.Passed, run.Failed, run.Total)
		}
	} else if err := outputScenarioJSON(opts.output(cmd), run); err != nil {
		return err
	}

	if run.Failed > 0 {
		return &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d scenario(s) failed", run.Failed),
			Reported: true,
		}
	}
	return nil
}

// outputScenarioJSON writes the run as one response. A failed run carries
// both the results and the error.
func outputScenarioJSON(out *OutputFormatter, run ScenarioRun) error {
	resp := CLIResponse{Status: "ok", Data: run}
	if run.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "SCENARIO_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", run.Failed),
		}
	}
	return out.encode(resp)
}

// findScenarioFiles lists the *.yaml and *.yml files of dir, sorted,
// keeping those whose base name matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func runScenarioFile(ctx context.Context, file string, update bool) ScenarioResult {
	s, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}
	res, err := harness.RunContext(ctx, s)
	if err != nil {
		return ScenarioResult{Name: s.Name, Errors: []string{fmt.Sprintf("execution failed: %v", err)}}
	}
	out := ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}

	snapshot, err := harness.Snapshot(res)
	if err != nil {
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf("snapshot failed: %v", err))
		return out
	}

	golden := goldenFilePath(file)
	if update {
		if err := os.MkdirAll(filepath.Dir(golden), 0o755); err != nil {
			out.Pass = false
			out.Errors = append(out.Errors, fmt.Sprintf("failed to create golden directory: %v", err))
			return out
		}
		if err := os.WriteFile(golden, snapshot, 0o644); err != nil {
			out.Pass = false
			out.Errors = append(out.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return out
	}

	want, err := os.ReadFile(golden)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Assertions only.
	case err != nil:
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(want, snapshot):
		out.Pass = false
		out.Errors = append(out.Errors, "final journal does not match golden file (run with --update to regenerate)")
	}
	return out
}
