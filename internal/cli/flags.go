package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/workflow"
)

// timeLayouts are the accepted --at/--from/--to forms, tried in order.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseWhen reads a timestamp flag. Forms without a zone are local time.
func parseWhen(field, raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(raw), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Validation("parse time", field, "cannot read %q as a time (want RFC 3339 or YYYY-MM-DD)", raw)
}

// sliderFlags maps intake slider flags to the wizard's sliders.
var sliderFlags = []struct {
	flag   string
	slider workflow.Slider
}{
	{"self-esteem", workflow.SliderSelfEsteem},
	{"mood", workflow.SliderMood},
	{"mindfulness", workflow.SliderMindfulness},
	{"stress", workflow.SliderStress},
	{"responsibilities", workflow.SliderResponsibilities},
}

// phaseAFlags are the intake fields shared by `session new` and
// `session edit`.
type phaseAFlags struct {
	intention string
	substance string
	dosage    float64
	sliders   map[workflow.Slider]*int
	social    string
	physical  string
	at        string
}

func (f *phaseAFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.intention, "intention", "", "what you intend to explore")
	fs.StringVar(&f.substance, "substance", "", "substance (2CB, Cannabis, Ketamine, LSD, MDMA, Ritalin, Shrooms)")
	fs.Float64Var(&f.dosage, "dosage", 0, "dose in the substance's usual unit")
	f.sliders = make(map[workflow.Slider]*int, len(sliderFlags))
	for _, s := range sliderFlags {
		v := new(int)
		f.sliders[s.slider] = v
		fs.IntVar(v, s.flag, 5, fmt.Sprintf("%s, 1-10", s.slider))
	}
	fs.StringVar(&f.social, "social", "", "social setting (alone|social)")
	fs.StringVar(&f.physical, "physical", "", "physical setting (familiar|new)")
	fs.StringVar(&f.at, "at", "", "session start (RFC 3339 or YYYY-MM-DD)")
}

// applyIntake feeds the changed flags to the wizard. Each setter saves
// the draft.
func (f *phaseAFlags) applyIntake(ctx context.Context, cmd *cobra.Command, in *workflow.Intake) error {
	changed := cmd.Flags().Changed
	if changed("intention") {
		if err := in.SetIntention(ctx, f.intention); err != nil {
			return err
		}
	}
	if changed("substance") || changed("dosage") {
		cur := in.PhaseA()
		sub, dose := cur.Substance, cur.Dosage
		if changed("substance") {
			s, err := domain.ParseSubstance(f.substance)
			if err != nil {
				return err
			}
			sub = s
		}
		if changed("dosage") {
			dose = f.dosage
		}
		if err := in.SetSubstance(ctx, sub, dose); err != nil {
			return err
		}
	}
	for _, s := range sliderFlags {
		if changed(s.flag) {
			if err := in.SetSlider(ctx, s.slider, *f.sliders[s.slider]); err != nil {
				return err
			}
		}
	}
	if changed("social") || changed("physical") {
		p := in.PhaseA()
		if err := f.applySetting(changed, &p); err != nil {
			return err
		}
		if err := in.SetSetting(ctx, p.Social, p.Physical); err != nil {
			return err
		}
	}
	if changed("at") {
		ts, err := parseWhen("timestamp", f.at)
		if err != nil {
			return err
		}
		if err := in.SetTimestamp(ctx, ts); err != nil {
			return err
		}
	}
	return nil
}

// applyPhaseA overlays the changed flags on an existing intake.
func (f *phaseAFlags) applyPhaseA(cmd *cobra.Command, p domain.PhaseA) (domain.PhaseA, error) {
	changed := cmd.Flags().Changed
	if changed("intention") {
		p.IntentionsText = f.intention
		p.Intentions = strings.TrimSpace(f.intention) != ""
	}
	if changed("substance") {
		s, err := domain.ParseSubstance(f.substance)
		if err != nil {
			return p, err
		}
		p.Substance = s
	}
	if changed("dosage") {
		p.Dosage = f.dosage
	}
	for _, s := range sliderFlags {
		if !changed(s.flag) {
			continue
		}
		v := *f.sliders[s.slider]
		switch s.slider {
		case workflow.SliderSelfEsteem:
			p.SelfEsteem = v
		case workflow.SliderMood:
			p.Mood = v
		case workflow.SliderMindfulness:
			p.Mindfulness = v
		case workflow.SliderStress:
			p.Stress = v
		case workflow.SliderResponsibilities:
			p.Responsibilities = v
		}
	}
	if err := f.applySetting(changed, &p); err != nil {
		return p, err
	}
	if changed("at") {
		ts, err := parseWhen("timestamp", f.at)
		if err != nil {
			return p, err
		}
		p.Timestamp = ts
	}
	return p, nil
}

func (f *phaseAFlags) applySetting(changed func(string) bool, p *domain.PhaseA) error {
	if changed("social") {
		s, err := domain.ParseSocial(f.social)
		if err != nil {
			return err
		}
		p.Social = s
	}
	if changed("physical") {
		ph, err := domain.ParsePhysical(f.physical)
		if err != nil {
			return err
		}
		p.Physical = ph
	}
	return nil
}

// outcomeFlags are the post-session sliders of `session land` and
// `session outcome`.
type outcomeFlags struct {
	mood, attention, wellBeing, energy, lifeOrientation int
}

func (f *outcomeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.mood, "mood", 5, "mood, 1-10")
	fs.IntVar(&f.attention, "attention", 5, "attention, 1-10")
	fs.IntVar(&f.wellBeing, "well-being", 5, "well-being, 1-10")
	fs.IntVar(&f.energy, "energy", 5, "energy, 1-10")
	fs.IntVar(&f.lifeOrientation, "life-orientation", 5, "pessimism (1) to optimism (10); 24h only")
}

// apply overlays the changed flags on o.
func (f *outcomeFlags) apply(cmd *cobra.Command, o domain.DayOutcome) domain.DayOutcome {
	changed := cmd.Flags().Changed
	if changed("mood") {
		o.Mood = f.mood
	}
	if changed("attention") {
		o.Attention = f.attention
	}
	if changed("well-being") {
		o.WellBeing = f.wellBeing
	}
	if changed("energy") {
		o.Energy = f.energy
	}
	if changed("life-orientation") {
		o.LifeOrientation = f.lifeOrientation
	}
	return o
}

// parseAnswers reads repeated --answer id=value flags. Numeric values
// become numeric answers, anything else free text.
func parseAnswers(raw []string) (map[string]domain.Answer, error) {
	out := make(map[string]domain.Answer, len(raw))
	for _, kv := range raw {
		id, val, ok := strings.Cut(kv, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, domain.Validation("parse answers", "answer", "want id=value, got %q", kv)
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			out[id] = domain.NumberAnswer(n)
		} else {
			out[id] = domain.TextAnswer(val)
		}
	}
	return out, nil
}

// isTerminal reports whether stream is an interactive terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// FileView reports a file written by an export.
type FileView struct {
	Path string `json:"path"`
}

// writeExport writes an export to path. With no path the export streams
// to stdout, unless stdout is a terminal, in which case it goes to
// defaultName in the working directory.
func (a *app) writeExport(path, defaultName string, write func(io.Writer) error) error {
	if path == "" && !isTerminal(a.out.Writer) {
		return write(a.out.Writer)
	}
	if path == "" {
		path = defaultName
	}
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create export file", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export file", err)
	}
	a.logger.Debug("export written", "path", path)

	v := FileView{Path: path}
	return a.out.Render(v, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Wrote %s\n", v.Path)
		return err
	})
}
