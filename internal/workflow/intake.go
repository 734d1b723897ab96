package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/state"
)

// IntakeStep is a page of the new-session wizard.
type IntakeStep int

const (
	StepIntention IntakeStep = iota
	StepSubstance
	StepInternalState
	StepSetting
	StepForecast
	StepSubmit
)

func (s IntakeStep) String() string {
	switch s {
	case StepIntention:
		return "intention"
	case StepSubstance:
		return "substance"
	case StepInternalState:
		return "internal-state"
	case StepSetting:
		return "setting"
	case StepForecast:
		return "forecast"
	case StepSubmit:
		return "submit"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// DefaultPhaseA is the intake a fresh wizard starts from.
func DefaultPhaseA(now time.Time) domain.PhaseA {
	return domain.PhaseA{
		Substance:        domain.SubstanceLSD,
		Dosage:           100,
		SelfEsteem:       5,
		Intentions:       true,
		Mood:             5,
		Mindfulness:      5,
		Stress:           5,
		Responsibilities: 5,
		Social:           domain.SocialAlone,
		Physical:         domain.PhysicalFamiliar,
		Timestamp:        now,
	}
}

// Intake is the new-session wizard. Every setter writes the draft before
// returning, so a crash loses at most the change in flight.
//
// Thread-safety: Intake is not safe for concurrent use.
type Intake struct {
	journal Journal
	advisor *insight.Advisor
	clock   state.Clock
	logger  *slog.Logger

	step     IntakeStep
	phaseA   domain.PhaseA
	tags     []string
	forecast *insight.Forecast
}

// IntakeOption configures an Intake.
type IntakeOption func(*Intake)

// WithAdvisor sets the forecast source. Default: a Disabled advisor.
func WithAdvisor(a *insight.Advisor) IntakeOption {
	return func(in *Intake) {
		in.advisor = a
	}
}

// WithClock sets the timestamp source.
func WithClock(c state.Clock) IntakeOption {
	return func(in *Intake) {
		in.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IntakeOption {
	return func(in *Intake) {
		in.logger = l
	}
}

// NewIntake starts the wizard, resuming from the stored draft if there is
// one. Fields the draft never set keep their defaults.
func NewIntake(j Journal, opts ...IntakeOption) *Intake {
	in := &Intake{
		journal: j,
		clock:   state.SystemClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.advisor == nil {
		in.advisor = insight.NewAdvisor(insight.Disabled{}, insight.WithLogger(in.logger))
	}
	in.reset()
	if d := j.Draft(); d != nil {
		in.phaseA = d.PhaseA.ApplyTo(in.phaseA)
		in.tags = append([]string{}, d.Tags...)
	}
	return in
}

func (in *Intake) reset() {
	in.step = StepIntention
	in.phaseA = DefaultPhaseA(in.clock.Now())
	in.tags = []string{}
	in.forecast = nil
}

// Step returns the current page.
func (in *Intake) Step() IntakeStep { return in.step }

// PhaseA returns the intake as entered so far.
func (in *Intake) PhaseA() domain.PhaseA { return in.phaseA }

// Tags returns the tags entered so far.
func (in *Intake) Tags() []string { return append([]string{}, in.tags...) }

// LastForecast returns the forecast fetched on the forecast step, or nil.
func (in *Intake) LastForecast() *insight.Forecast { return in.forecast }

// SetIntention records the intention text. A non-blank text also sets the
// intentions flag.
func (in *Intake) SetIntention(ctx context.Context, text string) error {
	in.phaseA.IntentionsText = text
	in.phaseA.Intentions = strings.TrimSpace(text) != ""
	return in.saveDraft(ctx)
}

// SetTags replaces the tags.
func (in *Intake) SetTags(ctx context.Context, tags []string) error {
	normalized, err := domain.NormalizeTags(tags)
	if err != nil {
		return err
	}
	in.tags = normalized
	return in.saveDraft(ctx)
}

// SetSubstance records the compound and dose.
func (in *Intake) SetSubstance(ctx context.Context, s domain.Substance, dosage float64) error {
	if !s.Valid() {
		return domain.Validation("set substance", "substance", "unknown substance %q", s)
	}
	if dosage < 0 {
		return domain.Validation("set substance", "dosage", "dosage must be a non-negative number")
	}
	in.phaseA.Substance = s
	in.phaseA.Dosage = dosage
	return in.saveDraft(ctx)
}

// SetSlider records one internal-state slider. Out-of-range values are
// kept and reported by Invalid.
func (in *Intake) SetSlider(ctx context.Context, s Slider, v int) error {
	field := sliderField(&in.phaseA, s)
	if field == nil {
		return domain.Validation("set slider", "slider", "unknown slider %q", s)
	}
	*field = v
	return in.saveDraft(ctx)
}

// SetSetting records the social and physical environment.
func (in *Intake) SetSetting(ctx context.Context, social domain.SocialEnvironment, physical domain.PhysicalEnvironment) error {
	if !social.Valid() {
		return domain.Validation("set setting", "social", "unknown social setting %q", social)
	}
	if !physical.Valid() {
		return domain.Validation("set setting", "physical", "unknown physical setting %q", physical)
	}
	in.phaseA.Social = social
	in.phaseA.Physical = physical
	return in.saveDraft(ctx)
}

// SetTimestamp backdates or postdates the session start.
func (in *Intake) SetTimestamp(ctx context.Context, ts time.Time) error {
	in.phaseA.Timestamp = ts
	return in.saveDraft(ctx)
}

// Invalid lists the sliders currently outside 1-10.
func (in *Intake) Invalid() []Slider {
	var out []Slider
	for _, s := range Sliders() {
		if !domain.InScale(*sliderField(&in.phaseA, s)) {
			out = append(out, s)
		}
	}
	return out
}

// Next advances one page. Leaving the intention page needs a non-blank
// intention.
func (in *Intake) Next() error {
	if in.step == StepIntention && strings.TrimSpace(in.phaseA.IntentionsText) == "" {
		return domain.Validation("intake next", "intentionsText", "state an intention before continuing")
	}
	if in.step < StepSubmit {
		in.step++
	}
	return nil
}

// Back returns to the previous page.
func (in *Intake) Back() {
	if in.step > StepIntention {
		in.step--
	}
}

// Forecast asks the advisor about the planned session using the active
// profile's history. It never fails.
func (in *Intake) Forecast(ctx context.Context) insight.Forecast {
	in.step = StepForecast
	f := in.advisor.Forecast(ctx, history(in.journal), insight.PlanFrom(in.phaseA))
	in.forecast = &f
	return f
}

// Submit commits the intake as a new active session. The store deletes the
// draft once the session is written. The wizard resets on success.
func (in *Intake) Submit(ctx context.Context) (domain.FlightSession, error) {
	if bad := in.Invalid(); len(bad) > 0 {
		return domain.FlightSession{}, domain.Validation("submit intake", string(bad[0]),
			"%s is outside %d-%d", bad[0], domain.ScaleMin, domain.ScaleMax)
	}
	session := domain.FlightSession{
		PhaseA:         in.phaseA,
		PhaseB:         []domain.LogEntry{},
		Questionnaires: []domain.QuestionnaireData{},
		Tags:           append([]string{}, in.tags...),
	}
	saved, err := in.journal.AddSession(ctx, session)
	if err != nil {
		return domain.FlightSession{}, err
	}
	in.logger.Info("intake submitted", "session_id", saved.ID)
	in.reset()
	return saved, nil
}

// Discard deletes the draft and resets the wizard.
func (in *Intake) Discard(ctx context.Context) error {
	if err := in.journal.SetDraft(ctx, nil); err != nil {
		return err
	}
	in.reset()
	return nil
}

func (in *Intake) saveDraft(ctx context.Context) error {
	return in.journal.SetDraft(ctx, &domain.DraftSession{
		PhaseA: domain.DraftFrom(in.phaseA),
		Tags:   append([]string{}, in.tags...),
	})
}
