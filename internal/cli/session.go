package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/export"
	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/query"
	"github.com/roach88/blackbox/internal/route"
	"github.com/roach88/blackbox/internal/workflow"
)

// SessionView is a session plus its shareable address.
type SessionView struct {
	Session domain.FlightSession `json:"session"`
	Link    string               `json:"link"`
}

func sessionView(s domain.FlightSession) SessionView {
	return SessionView{Session: s, Link: route.SessionFragment(s.ID)}
}

func status(s domain.FlightSession) string {
	if s.IsCompleted {
		return "LANDED"
	}
	return "IN FLIGHT"
}

func writeSessionLine(w io.Writer, s domain.FlightSession) {
	fmt.Fprintf(w, "%-36s  %s  %-9s %7g  %-9s  %s\n",
		s.ID,
		s.PhaseA.Timestamp.Local().Format("2006-01-02 15:04"),
		s.PhaseA.Substance,
		s.PhaseA.Dosage,
		status(s),
		strings.Join(s.Tags, ", "))
}

func writeOutcome(w io.Writer, label string, o *domain.Outcome) {
	if o == nil {
		fmt.Fprintf(w, "  %-4s not recorded\n", label)
		return
	}
	fmt.Fprintf(w, "  %-4s mood %d  attention %d  well-being %d  energy %d\n",
		label, o.Mood, o.Attention, o.WellBeing, o.Energy)
}

func (v SessionView) writeText(w io.Writer) error {
	s := v.Session
	a := s.PhaseA
	fmt.Fprintf(w, "Session %s [%s]\n", s.ID, status(s))
	fmt.Fprintf(w, "Link:      %s\n", v.Link)
	fmt.Fprintf(w, "Start:     %s\n", a.Timestamp.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "Substance: %s %g\n", a.Substance, a.Dosage)
	if a.IntentionsText != "" {
		fmt.Fprintf(w, "Intention: %s\n", a.IntentionsText)
	}
	fmt.Fprintf(w, "Set:       self-esteem %d  mood %d  mindfulness %d  stress %d  responsibilities %d\n",
		a.SelfEsteem, a.Mood, a.Mindfulness, a.Stress, a.Responsibilities)
	fmt.Fprintf(w, "Setting:   %s, %s\n", a.Social, a.Physical)
	if len(s.Tags) > 0 {
		fmt.Fprintf(w, "Tags:      %s\n", strings.Join(s.Tags, ", "))
	}

	if len(s.PhaseB) > 0 {
		fmt.Fprintln(w, "Log:")
		for _, e := range s.PhaseB {
			fmt.Fprintf(w, "  %s  [%s] %s\n", e.Timestamp.Local().Format("15:04:05"), e.Type, e.Content)
		}
	}

	fmt.Fprintln(w, "Outcomes:")
	writeOutcome(w, "1h", s.PhaseC.OneHour)
	writeOutcome(w, "24h", s.PhaseC.Outcome(domain.HorizonOneDay))
	if s.PhaseC.OneDay != nil {
		fmt.Fprintf(w, "       life orientation %d\n", s.PhaseC.OneDay.LifeOrientation)
	}
	writeOutcome(w, "7d", s.PhaseC.OneWeek)

	if s.DebriefText != "" {
		fmt.Fprintf(w, "Debrief:\n  %s\n", s.DebriefText)
	}
	if s.Notes != "" {
		fmt.Fprintf(w, "Notes:\n  %s\n", s.Notes)
	}
	return nil
}

func (a *app) renderSession(s domain.FlightSession) error {
	v := sessionView(s)
	return a.out.Render(v, v.writeText)
}

// sessionRef resolves a session argument: a bare id or a "#session/<id>"
// address.
func sessionRef(arg string) (string, error) {
	if !strings.HasPrefix(arg, "#") {
		return arg, nil
	}
	r := route.Parse(arg)
	if r.View != route.Session {
		return "", NewExitError(ExitFailure, fmt.Sprintf("%q is not a session address", arg))
	}
	return r.SessionID, nil
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"flight"},
		Short:   "Log and review sessions",
		Long: `Log and review sessions of the active profile.

A session starts with "session new" (set and setting), collects in-flight
log entries with "session log", and is completed with "session land".
Past sessions can be entered in one step with "session retro".`,
	}
	cmd.AddCommand(newSessionNewCommand(opts))
	cmd.AddCommand(newSessionLandCommand(opts))
	cmd.AddCommand(newSessionRetroCommand(opts))
	cmd.AddCommand(newSessionListCommand(opts))
	cmd.AddCommand(newSessionShowCommand(opts))
	cmd.AddCommand(newSessionLogCommand(opts))
	cmd.AddCommand(newSessionOutcomeCommand(opts))
	cmd.AddCommand(newSessionTagCommand(opts))
	cmd.AddCommand(newSessionNotesCommand(opts))
	cmd.AddCommand(newSessionEditCommand(opts))
	cmd.AddCommand(newSessionDuplicateCommand(opts))
	cmd.AddCommand(newSessionExportCommand(opts))
	return cmd
}

// NewSessionResult is the output of `session new`.
type NewSessionResult struct {
	Session  *domain.FlightSession `json:"session,omitempty"`
	Draft    *domain.DraftSession  `json:"draft,omitempty"`
	Forecast *insight.Forecast     `json:"forecast,omitempty"`
}

func newSessionNewCommand(opts *RootOptions) *cobra.Command {
	var (
		fields   phaseAFlags
		tags     []string
		forecast bool
		draft    bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a session from set and setting",
		Long: `Start a session for the active profile.

The intake resumes from the saved draft, if there is one, and every flag
given is written to the draft before the session is created. With --draft
the intake is only saved; run "session new" again to submit it.

Example:
  blackbox session new --intention "Open up" --substance LSD --dosage 100 --mood 7
  blackbox session new --intention "Rest" --forecast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				in := workflow.NewIntake(a.journal,
					workflow.WithAdvisor(a.advisor),
					workflow.WithClock(a.clock),
					workflow.WithLogger(a.logger),
				)
				if err := fields.applyIntake(ctx, cmd, in); err != nil {
					return err
				}
				if cmd.Flags().Changed("tag") {
					if err := in.SetTags(ctx, tags); err != nil {
						return err
					}
				}

				var res NewSessionResult
				if forecast {
					f := in.Forecast(ctx)
					res.Forecast = &f
				}
				if draft {
					res.Draft = a.journal.Draft()
					return a.out.Render(res, func(w io.Writer) error {
						writeForecast(w, res.Forecast)
						_, err := fmt.Fprintln(w, "Draft saved.")
						return err
					})
				}

				if err := in.Next(); err != nil {
					return err
				}
				saved, err := in.Submit(ctx)
				if err != nil {
					return err
				}
				res.Session = &saved
				return a.out.Render(res, func(w io.Writer) error {
					writeForecast(w, res.Forecast)
					fmt.Fprintf(w, "Session %s is in flight.\n", saved.ID)
					fmt.Fprintf(w, "Log with: blackbox session log %s \"...\"\n", saved.ID)
					return nil
				})
			})
		},
	}

	fields.register(cmd)
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().BoolVar(&forecast, "forecast", false, "ask for an outcome forecast")
	cmd.Flags().BoolVar(&draft, "draft", false, "save the draft without creating the session")
	return cmd
}

func writeForecast(w io.Writer, f *insight.Forecast) {
	if f == nil {
		return
	}
	fmt.Fprintf(w, "Forecast: well-being %.1f, anxiety %.0f%%\n", f.WellBeingScore, f.AnxietyProbability*100)
	if f.Warning != nil && *f.Warning != "" {
		fmt.Fprintf(w, "Warning:  %s\n", *f.Warning)
	}
}

func newSessionLandCommand(opts *RootOptions) *cobra.Command {
	var (
		outcome outcomeFlags
		debrief string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "land <id>",
		Short: "Complete a session with debrief, 24h outcome and tags",
		Long: `Complete an in-flight session. Debrief, the 24h outcome and tags are
written together. Unset flags keep the session's current values; the
outcome sliders start at 5.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				l, err := workflow.NewLanding(a.journal, id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("debrief") {
					l.SetDebrief(debrief)
				}
				l.SetOutcome(outcome.apply(cmd, l.Outcome()))
				if cmd.Flags().Changed("tag") {
					if err := l.SetTags(tags); err != nil {
						return err
					}
				}
				saved, err := l.Commit(ctx)
				if err != nil {
					return err
				}
				return a.renderSession(saved)
			})
		},
	}

	outcome.register(cmd)
	cmd.Flags().StringVar(&debrief, "debrief", "", "debrief text")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (replaces the session's tags)")
	return cmd
}

// RetroView is the output of `session retro`.
type RetroView struct {
	Session            domain.FlightSession `json:"session"`
	WellBeingEstimated bool                 `json:"wellBeingEstimated"`
}

func newSessionRetroCommand(opts *RootOptions) *cobra.Command {
	var (
		debrief, substance, social, physical, at string
		dosage                                   float64
		mood, mindfulness, stress                int
		tags                                     []string
	)

	cmd := &cobra.Command{
		Use:   "retro",
		Short: "Record a past session in one step",
		Long: fmt.Sprintf(`Record a session that already happened. The entry is stored as
completed, with a 24h well-being of %d marked as an estimate.`, workflow.EstimatedWellBeing),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				in := workflow.DefaultRetroInput(a.clock.Now())
				in.Debrief = debrief
				in.Mood, in.Mindfulness, in.Stress = mood, mindfulness, stress
				in.Dosage = dosage
				if len(tags) > 0 {
					in.Tags = tags
				}
				var err error
				if cmd.Flags().Changed("substance") {
					if in.Substance, err = domain.ParseSubstance(substance); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("social") {
					if in.Social, err = domain.ParseSocial(social); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("physical") {
					if in.Physical, err = domain.ParsePhysical(physical); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("at") {
					if in.Timestamp, err = parseWhen("timestamp", at); err != nil {
						return err
					}
				}

				res, err := workflow.Retrospective(ctx, a.journal, in)
				if err != nil {
					return err
				}
				v := RetroView{Session: res.Session, WellBeingEstimated: res.WellBeingEstimated}
				return a.out.Render(v, func(w io.Writer) error {
					fmt.Fprintf(w, "Recorded retrospective session %s.\n", v.Session.ID)
					fmt.Fprintf(w, "24h well-being is estimated at %d.\n", workflow.EstimatedWellBeing)
					return nil
				})
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&debrief, "debrief", "", "what happened")
	fs.StringVar(&substance, "substance", "", "substance (default LSD)")
	fs.Float64Var(&dosage, "dosage", 100, "dose")
	fs.IntVar(&mood, "mood", 5, "mood before, 1-10")
	fs.IntVar(&mindfulness, "mindfulness", 5, "mindfulness before, 1-10")
	fs.IntVar(&stress, "stress", 5, "stress before, 1-10")
	fs.StringVar(&social, "social", "", "social setting (alone|social)")
	fs.StringVar(&physical, "physical", "", "physical setting (familiar|new)")
	fs.StringVar(&at, "at", "", "when it happened (default now)")
	fs.StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func newSessionListCommand(opts *RootOptions) *cobra.Command {
	var (
		substance, tag, from, to, order string
		active                          bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active profile's sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				if a.journal.ActiveProfile() == nil {
					return domain.NoActiveProfile("list sessions")
				}
				f := query.Filter{Substance: substance, Tag: tag}
				var err error
				if f.Order, err = query.ParseOrder(order); err != nil {
					return err
				}
				if from != "" {
					if f.Start, err = parseWhen("from", from); err != nil {
						return err
					}
				}
				if to != "" {
					if f.End, err = parseWhen("to", to); err != nil {
						return err
					}
				}

				sessions := a.activeSessions()
				if active {
					sessions = query.Active(sessions)
				}
				sessions = query.Apply(sessions, f)
				return a.out.Render(sessions, func(w io.Writer) error {
					if len(sessions) == 0 {
						fmt.Fprintln(w, "No sessions.")
						return nil
					}
					for _, s := range sessions {
						writeSessionLine(w, s)
					}
					return nil
				})
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&substance, "substance", "", "only this substance")
	fs.StringVar(&tag, "tag", "", "only sessions with a tag containing this text")
	fs.StringVar(&from, "from", "", "earliest start date")
	fs.StringVar(&to, "to", "", "latest start date (whole day included)")
	fs.StringVar(&order, "order", "desc", "sort order (desc|asc)")
	fs.BoolVar(&active, "active", false, "only sessions still in flight")
	return cmd
}

func newSessionShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|#session/id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				s, err := a.journal.Session(id)
				if err != nil {
					return err
				}
				return a.renderSession(s)
			})
		},
	}
}

// dataURL encodes a file the way the log stream stores attachments.
func dataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func newSessionLogCommand(opts *RootOptions) *cobra.Command {
	var typ, file string

	cmd := &cobra.Command{
		Use:   "log <id> [content]",
		Short: "Append an in-flight log entry",
		Long: fmt.Sprintf(`Append an entry to a session's log. Entries cannot be edited.

Types offered: %s. With --file the file is attached instead.`, strings.Join(domain.LogTypes(), ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				editor := workflow.NewEditor(a.journal, a.clock)

				var saved domain.FlightSession
				switch {
				case file != "":
					data, err := os.ReadFile(file)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to read attachment", err)
					}
					saved, err = editor.AttachFile(ctx, id, filepath.Base(file), dataURL(data))
					if err != nil {
						return err
					}
				case len(args) == 2:
					saved, err = editor.AppendLog(ctx, id, args[1], typ)
					if err != nil {
						return err
					}
				default:
					return NewExitError(ExitCommandError, "log entry needs content or --file")
				}
				entry := saved.PhaseB[len(saved.PhaseB)-1]
				return a.out.Render(entry, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Logged at %s (%d entries).\n",
						entry.Timestamp.Local().Format("15:04:05"), len(saved.PhaseB))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", domain.LogText, "entry type")
	cmd.Flags().StringVar(&file, "file", "", "attach a file")
	return cmd
}

func newSessionOutcomeCommand(opts *RootOptions) *cobra.Command {
	var (
		outcome outcomeFlags
		horizon string
	)

	cmd := &cobra.Command{
		Use:   "outcome <id>",
		Short: "Record the 1h, 24h or 7d outcome",
		Long: `Record one outcome snapshot. The other horizons are left alone.
Unset sliders keep the stored snapshot's values, else 5.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				h, err := domain.ParseHorizon(horizon)
				if err != nil {
					return err
				}
				sess, err := a.journal.Session(id)
				if err != nil {
					return err
				}

				base := workflow.NeutralDayOutcome()
				if o := sess.PhaseC.Outcome(h); o != nil {
					base.Outcome = *o
				}
				if h == domain.HorizonOneDay && sess.PhaseC.OneDay != nil {
					base.LifeOrientation = sess.PhaseC.OneDay.LifeOrientation
				}
				o := outcome.apply(cmd, base)

				saved, err := workflow.NewEditor(a.journal, a.clock).RecordOutcome(ctx, id, h, workflow.OutcomeInput{
					Mood:            o.Mood,
					Attention:       o.Attention,
					WellBeing:       o.WellBeing,
					Energy:          o.Energy,
					LifeOrientation: o.LifeOrientation,
				})
				if err != nil {
					return err
				}
				return a.renderSession(saved)
			})
		},
	}

	outcome.register(cmd)
	cmd.Flags().StringVar(&horizon, "horizon", "24h", "horizon (1h|24h|7d)")
	return cmd
}

func newSessionTagCommand(opts *RootOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Add quick tags to a session",
		Long: `Add tags to a session. Quick tags are upper-cased and skipped when
already present. With --replace the given tags replace the session's tags
as entered.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				editor := workflow.NewEditor(a.journal, a.clock)

				var saved domain.FlightSession
				if replace {
					saved, err = editor.SetTags(ctx, id, args[1:])
					if err != nil {
						return err
					}
				} else {
					if len(args) < 2 {
						return NewExitError(ExitCommandError, "no tag given")
					}
					for _, t := range args[1:] {
						if saved, err = editor.QuickTag(ctx, id, t); err != nil {
							return err
						}
					}
				}
				return a.out.Render(saved.Tags, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Tags: %s\n", strings.Join(saved.Tags, ", "))
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace all tags")
	return cmd
}

func newSessionNotesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Replace a session's integration notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				if _, err := workflow.NewEditor(a.journal, a.clock).SaveNotes(ctx, id, args[1]); err != nil {
					return err
				}
				return a.out.Success("Notes saved.")
			})
		},
	}
}

func newSessionEditCommand(opts *RootOptions) *cobra.Command {
	var (
		fields  phaseAFlags
		debrief string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Correct a session's intake or debrief",
		Long:  "Correct a session's intake fields or debrief. Only the flags given change. The log cannot be edited.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				sess, err := a.journal.Session(id)
				if err != nil {
					return err
				}
				phaseA, err := fields.applyPhaseA(cmd, sess.PhaseA)
				if err != nil {
					return err
				}
				d := sess.DebriefText
				if cmd.Flags().Changed("debrief") {
					d = debrief
				}
				saved, err := workflow.NewEditor(a.journal, a.clock).EditFlight(ctx, id, phaseA, d)
				if err != nil {
					return err
				}
				return a.renderSession(saved)
			})
		},
	}

	fields.register(cmd)
	cmd.Flags().StringVar(&debrief, "debrief", "", "debrief text")
	return cmd
}

func newSessionDuplicateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a session's intake into the draft",
		Long:  "Copy a session's intake and tags into the draft with a fresh start time, replacing any draft in progress. Submit it with \"session new\".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				d, err := workflow.NewEditor(a.journal, a.clock).DuplicateToDraft(ctx, id)
				if err != nil {
					return err
				}
				return a.out.Render(d, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Draft replaced. Submit with: blackbox session new")
					return err
				})
			})
		},
	}
}

func newSessionExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export one session as JSON",
		Long: `Write a session as indented JSON. Without -o the JSON goes to stdout,
or to flight_session_<id prefix>.json when stdout is a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := sessionRef(args[0])
				if err != nil {
					return err
				}
				sess, err := a.journal.Session(id)
				if err != nil {
					return err
				}
				return a.writeExport(output, export.JSONFilename(sess), func(w io.Writer) error {
					return export.JSON(w, sess)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}
