package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/analytics"
	"github.com/roach88/blackbox/internal/catalog"
	"github.com/roach88/blackbox/internal/domain"
)

// NewBaselineCommand creates the baseline command group.
func NewBaselineCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Calibration snapshots outside sessions",
	}
	cmd.AddCommand(newBaselineAddCommand(opts))
	cmd.AddCommand(newBaselineListCommand(opts))
	return cmd
}

func newBaselineAddCommand(opts *RootOptions) *cobra.Command {
	var b domain.Baseline
	var at string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a baseline for the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if at != "" {
					ts, err := parseWhen("timestamp", at)
					if err != nil {
						return err
					}
					b.Timestamp = ts
				}
				saved, err := a.journal.AddBaseline(ctx, b)
				if err != nil {
					return err
				}
				return a.out.Render(saved, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Baseline recorded at %s.\n", saved.Timestamp.Local().Format(time.RFC1123))
					return err
				})
			})
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&b.Mood, "mood", 5, "mood, 1-10")
	fs.IntVar(&b.Stress, "stress", 5, "stress, 1-10")
	fs.IntVar(&b.WellBeing, "well-being", 5, "well-being, 1-10")
	fs.IntVar(&b.Mindfulness, "mindfulness", 5, "mindfulness, 1-10")
	fs.IntVar(&b.SelfEsteem, "self-esteem", 5, "self-esteem, 1-10")
	fs.StringVar(&at, "at", "", "time of the snapshot (default now)")
	return cmd
}

func newBaselineListCommand(opts *RootOptions) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List baselines, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				p := a.journal.ActiveProfile()
				if p == nil {
					return domain.NoActiveProfile("list baselines")
				}
				trend := analytics.BaselineTrend(p.Baselines, last)
				return a.out.Render(trend, func(w io.Writer) error {
					if len(trend) == 0 {
						fmt.Fprintln(w, "No baselines.")
						return nil
					}
					fmt.Fprintf(w, "%-16s  %4s %6s %4s %6s %6s\n", "TIME", "MOOD", "STRESS", "WB", "MINDF", "ESTEEM")
					for _, b := range trend {
						fmt.Fprintf(w, "%-16s  %4d %6d %4d %6d %6d\n",
							b.Timestamp.Local().Format("2006-01-02 15:04"),
							b.Mood, b.Stress, b.WellBeing, b.Mindfulness, b.SelfEsteem)
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "show only the last n (0 for all)")
	return cmd
}

// NewQuestionnaireCommand creates the questionnaire command group.
func NewQuestionnaireCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questionnaire",
		Aliases: []string{"q"},
		Short:   "Fixed-form assessments",
	}
	cmd.AddCommand(newQuestionnaireListCommand(opts))
	cmd.AddCommand(newQuestionnaireTakeCommand(opts))
	cmd.AddCommand(newQuestionnaireResultsCommand(opts))
	return cmd
}

func loadCatalog() (*catalog.Catalog, error) {
	c, err := catalog.Default()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load questionnaire catalog", err)
	}
	return c, nil
}

func newQuestionnaireListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available questionnaires and their questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			// The catalog is embedded; listing it opens no database.
			out := opts.output(cmd)
			templates := c.Templates()
			return out.Render(templates, func(w io.Writer) error {
				for _, t := range templates {
					fmt.Fprintf(w, "%s  %s (answers %d-%d)\n", t.ID, t.Name, t.Scale.Min, t.Scale.Max)
					for _, q := range t.Questions {
						fmt.Fprintf(w, "    %-4s %s\n", q.ID, q.Text)
					}
				}
				return nil
			})
		},
	}
}

func newQuestionnaireTakeCommand(opts *RootOptions) *cobra.Command {
	var answers []string

	cmd := &cobra.Command{
		Use:   "take <questionnaire-id>",
		Short: "Record a completed questionnaire",
		Long: `Score and record a questionnaire for the active profile. Every question
must be answered with a whole number inside the template's scale.

Example:
  blackbox questionnaire take hsc --answer q1=4 --answer q2=5 --answer q3=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			t, err := c.Lookup(args[0])
			if err != nil {
				return err
			}
			responses, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			res, err := catalog.NewResult(t, responses)
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				saved, err := a.journal.AddQuestionnaireResult(ctx, res)
				if err != nil {
					return err
				}
				return a.out.Render(saved, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s recorded, score %.1f.\n", saved.Name, *saved.Score)
					return err
				})
			})
		},
	}

	cmd.Flags().StringArrayVar(&answers, "answer", nil, "answer as question-id=value (repeatable)")
	return cmd
}

func newQuestionnaireResultsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List the active profile's questionnaire results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				p := a.journal.ActiveProfile()
				if p == nil {
					return domain.NoActiveProfile("list questionnaire results")
				}
				results := p.Questionnaires
				return a.out.Render(results, func(w io.Writer) error {
					if len(results) == 0 {
						fmt.Fprintln(w, "No results.")
						return nil
					}
					for _, r := range results {
						score := "-"
						if r.Score != nil {
							score = fmt.Sprintf("%.1f", *r.Score)
						}
						fmt.Fprintf(w, "%s  %-40s %5s\n", r.CompletedAt.Local().Format("2006-01-02 15:04"), r.Name, score)
					}
					return nil
				})
			})
		},
	}
}
