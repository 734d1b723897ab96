package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/workflow"
)

// NewDraftCommand creates the draft command group.
func NewDraftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard the unsubmitted intake",
	}
	cmd.AddCommand(newDraftShowCommand(opts))
	cmd.AddCommand(newDraftDiscardCommand(opts))
	return cmd
}

func newDraftShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				d := a.journal.Draft()
				return a.out.Render(d, func(w io.Writer) error {
					if d == nil {
						fmt.Fprintln(w, "No draft.")
						return nil
					}
					p := d.PhaseA.ApplyTo(workflow.DefaultPhaseA(time.Time{}))
					fmt.Fprintf(w, "Draft saved %s\n", d.LastSaved.Local().Format(time.RFC1123))
					fmt.Fprintf(w, "Intention: %s\n", p.IntentionsText)
					fmt.Fprintf(w, "Substance: %s %g\n", p.Substance, p.Dosage)
					fmt.Fprintf(w, "Set:       self-esteem %d  mood %d  mindfulness %d  stress %d  responsibilities %d\n",
						p.SelfEsteem, p.Mood, p.Mindfulness, p.Stress, p.Responsibilities)
					fmt.Fprintf(w, "Setting:   %s, %s\n", p.Social, p.Physical)
					if len(d.Tags) > 0 {
						fmt.Fprintf(w, "Tags:      %s\n", strings.Join(d.Tags, ", "))
					}
					for _, s := range workflow.Sliders() {
						if !domain.InScale(sliderValue(p, s)) {
							fmt.Fprintf(w, "! %s is outside %d-%d\n", s, domain.ScaleMin, domain.ScaleMax)
						}
					}
					return nil
				})
			})
		},
	}
}

func sliderValue(p domain.PhaseA, s workflow.Slider) int {
	switch s {
	case workflow.SliderSelfEsteem:
		return p.SelfEsteem
	case workflow.SliderMood:
		return p.Mood
	case workflow.SliderMindfulness:
		return p.Mindfulness
	case workflow.SliderStress:
		return p.Stress
	case workflow.SliderResponsibilities:
		return p.Responsibilities
	}
	return 0
}

func newDraftDiscardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Delete the saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if err := a.journal.SetDraft(ctx, nil); err != nil {
					return err
				}
				return a.out.Success("Draft discarded.")
			})
		},
	}
}
