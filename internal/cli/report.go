package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/analytics"
	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/export"
	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/workflow"
)

// NewExportCommand creates the export command group.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active profile's sessions",
	}
	cmd.AddCommand(newExportCSVCommand(opts))
	return cmd
}

func newExportCSVCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export sessions as CSV",
		Long: `Write one CSV row per session of the active profile. Without -o the CSV
goes to stdout, or to blackbox_export_<date>.csv when stdout is a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if a.journal.ActiveProfile() == nil {
					return domain.NoActiveProfile("export csv")
				}
				sessions := a.activeSessions()
				return a.writeExport(output, export.CSVFilename(a.clock.Now()), func(w io.Writer) error {
					return export.CSV(w, sessions)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

// InsightsView is the output of `insights`.
type InsightsView struct {
	Text string `json:"text"`
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Summarize patterns in the active profile's sessions",
		Long: `Ask the insight service for a short analysis of the active profile's
history. When the service is unavailable a fixed notice is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if a.journal.ActiveProfile() == nil {
					return domain.NoActiveProfile("insights")
				}
				v := InsightsView{Text: a.advisor.Insights(ctx, a.activeSessions())}
				return a.out.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, v.Text)
					return err
				})
			})
		},
	}
}

// NewForecastCommand creates the forecast command.
func NewForecastCommand(opts *RootOptions) *cobra.Command {
	var substance string
	var dosage float64
	var physical string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the outcome of a planned session",
		Long: `Forecast a planned session from the active profile's history. The plan
defaults to the saved draft, or the intake defaults when there is none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if a.journal.ActiveProfile() == nil {
					return domain.NoActiveProfile("forecast")
				}
				p := workflow.DefaultPhaseA(a.clock.Now())
				if d := a.journal.Draft(); d != nil {
					p = d.PhaseA.ApplyTo(p)
				}
				plan := insight.PlanFrom(p)
				var err error
				if cmd.Flags().Changed("substance") {
					if plan.Substance, err = domain.ParseSubstance(substance); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("dosage") {
					plan.Dosage = dosage
				}
				if cmd.Flags().Changed("physical") {
					if plan.Physical, err = domain.ParsePhysical(physical); err != nil {
						return err
					}
				}

				f := a.advisor.Forecast(ctx, a.activeSessions(), plan)
				return a.out.Render(f, func(w io.Writer) error {
					fmt.Fprintf(w, "Plan: %s %g, %s\n", plan.Substance, plan.Dosage, plan.Physical)
					writeForecast(w, &f)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&substance, "substance", "", "planned substance")
	cmd.Flags().Float64Var(&dosage, "dosage", 0, "planned dose")
	cmd.Flags().StringVar(&physical, "physical", "", "planned physical setting (familiar|new)")
	return cmd
}

// StatsView is the dashboard summary of the active profile.
type StatsView struct {
	Profile  string                `json:"profile"`
	Summary  analytics.Summary     `json:"summary"`
	Settings analytics.Settings    `json:"settings"`
	Doses    []analytics.DosePoint `json:"doses"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"dashboard"},
		Short:   "Show the active profile's dashboard figures",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				p := a.journal.ActiveProfile()
				if p == nil {
					return domain.NoActiveProfile("stats")
				}
				v := StatsView{
					Profile:  p.Name,
					Summary:  analytics.Summarize(p.Sessions),
					Settings: analytics.SettingComparison(p.Sessions),
					Doses:    analytics.DoseOutcome(p.Sessions),
				}
				return a.out.Render(v, v.writeText)
			})
		},
	}
}

func (v StatsView) writeText(w io.Writer) error {
	s := v.Summary
	fmt.Fprintf(w, "Profile:            %s\n", v.Profile)
	fmt.Fprintf(w, "Flights:            %d (%d landed)\n", s.Flights, s.Completed)
	fmt.Fprintf(w, "Avg 24h well-being: %.1f\n", s.AverageWellBeing)
	fmt.Fprintf(w, "Orientation:        %s\n", s.Status)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Mindfulness before, by company:")
	fmt.Fprintf(w, "  alone %.1f   not alone %.1f\n", v.Settings.MindfulnessAlone, v.Settings.MindfulnessSocial)
	fmt.Fprintln(w, "Attention after 1h, by surroundings:")
	fmt.Fprintf(w, "  familiar %.1f   new %.1f\n", v.Settings.AttentionFamiliar, v.Settings.AttentionNew)
	if len(v.Doses) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dose vs well-being:")
		for _, d := range v.Doses {
			fmt.Fprintf(w, "  %-9s %7g  -> %d\n", d.Substance, d.Dosage, d.WellBeing)
		}
	}
	return nil
}
