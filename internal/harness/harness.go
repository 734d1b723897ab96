package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/blackbox/internal/catalog"
	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/insight"
	"github.com/roach88/blackbox/internal/state"
	"github.com/roach88/blackbox/internal/store"
	"github.com/roach88/blackbox/internal/testutil"
	"github.com/roach88/blackbox/internal/workflow"
)

// ClockStep is how far the scenario clock advances per reading.
const ClockStep = time.Minute

// Harness is the scenario execution context: one journal over a private
// in-memory database.
type Harness struct {
	journal *state.Store
	clock   *testutil.DeterministicClock
	advisor *insight.Advisor
	editor  *workflow.Editor
	logger  *slog.Logger

	lastInsight  string
	lastForecast *insight.Forecast
}

type opFunc func(ctx context.Context, h *Harness, a args) error

// operations maps scenario op names to their implementations.
var operations = map[string]opFunc{
	"login":              opLogin,
	"add_profile":        opAddProfile,
	"use_profile":        opUseProfile,
	"update_profile":     opUpdateProfile,
	"complete_tutorial":  opCompleteTutorial,
	"toggle_theme":       opToggleTheme,
	"add_session":        opAddSession,
	"update_tags":        opUpdateTags,
	"land":               opLand,
	"retro":              opRetro,
	"record_outcome":     opRecordOutcome,
	"append_log":         opAppendLog,
	"save_notes":         opSaveNotes,
	"quick_tag":          opQuickTag,
	"duplicate":          opDuplicate,
	"intake":             opIntake,
	"discard_draft":      opDiscardDraft,
	"add_baseline":       opAddBaseline,
	"take_questionnaire": opTakeQuestionnaire,
	"forecast":           opForecast,
	"insights":           opInsights,
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The clock starts at
// the scenario's clock_start and advances ClockStep per reading; ids are
// "id-0001", "id-0002", ... A step whose error code differs from its
// expect_error fails the result but the run continues. A malformed
// argument aborts the run with an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer backend.Close()

	h := newHarness(backend, scenario)

	result := NewResult()
	for i, step := range scenario.Steps {
		op := operations[step.Op]
		if op == nil {
			return nil, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		stepErr := op(ctx, h, args(step.Args))
		if isArgError(stepErr) {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, stepErr)
		}
		result.addStep(i, step.Op, stepErr)
		checkStep(result, i, step, stepErr)
	}

	result.User = h.journal.User()
	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(backend *store.Store, scenario *Scenario) *Harness {
	start := scenario.ClockStart
	if start.IsZero() {
		start = testutil.Epoch
	}
	clock := testutil.NewDeterministicClock(start.UTC(), ClockStep)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	journal := state.New(backend,
		state.WithClock(clock),
		state.WithIDGenerator(testutil.NewSequentialIDs("id")),
		state.WithLogger(logger),
	)
	return &Harness{
		journal: journal,
		clock:   clock,
		advisor: insight.NewAdvisor(newFake(scenario.Insight), insight.WithLogger(logger)),
		editor:  workflow.NewEditor(journal, clock),
		logger:  logger,
	}
}

func newFake(f *InsightFixture) *insight.Fake {
	fake := &insight.Fake{}
	if f == nil {
		return fake
	}
	fake.InsightsText = f.Text
	fake.ForecastResult = insight.Forecast{
		AnxietyProbability: f.AnxietyProbability,
		WellBeingScore:     f.WellBeingScore,
	}
	if f.Error != "" {
		fake.Err = errors.New(f.Error)
	}
	return fake
}

func checkStep(result *Result, i int, step Step, err error) {
	got := domain.CodeOf(err)
	switch {
	case err == nil && step.ExpectError == "":
	case err == nil:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s error, got success", i, step.Op, step.ExpectError))
	case step.ExpectError == "":
		result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected error: %v", i, step.Op, err))
	case got != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s error, got %v", i, step.Op, step.ExpectError, err))
	}
}

func (h *Harness) history() []domain.FlightSession {
	p := h.journal.ActiveProfile()
	if p == nil {
		return nil
	}
	return p.Sessions
}

func opLogin(ctx context.Context, h *Harness, a args) error {
	email, err := a.str("email", "")
	if err != nil {
		return err
	}
	_, err = h.journal.Login(ctx, email)
	return err
}

func opAddProfile(ctx context.Context, h *Harness, a args) error {
	name, err := a.str("name", "")
	if err != nil {
		return err
	}
	_, err = h.journal.AddProfile(ctx, name)
	return err
}

// profileID resolves a profile name to its id. Unknown names are returned
// as-is so the store sees an unknown id.
func (h *Harness) profileID(name string) string {
	u := h.journal.User()
	if u == nil {
		return name
	}
	for _, p := range u.Profiles {
		if p.Name == name {
			return p.ID
		}
	}
	return name
}

func opUseProfile(ctx context.Context, h *Harness, a args) error {
	name, err := a.str("name", "")
	if err != nil {
		return err
	}
	return h.journal.SetActiveProfile(ctx, h.profileID(name))
}

func opUpdateProfile(ctx context.Context, h *Harness, a args) error {
	name, err := a.str("name", "")
	if err != nil {
		return err
	}
	id := h.profileID(name)
	if name == "" {
		if p := h.journal.ActiveProfile(); p != nil {
			id = p.ID
		}
	}

	var patch state.ProfilePatch
	for key, dst := range map[string]**string{"age": &patch.Age, "sex": &patch.Sex, "details": &patch.Details} {
		if !a.has(key) {
			continue
		}
		v, err := a.str(key, "")
		if err != nil {
			return err
		}
		*dst = &v
	}
	_, err = h.journal.UpdateProfile(ctx, id, patch)
	return err
}

func opCompleteTutorial(ctx context.Context, h *Harness, _ args) error {
	return h.journal.CompleteTutorial(ctx)
}

func opToggleTheme(ctx context.Context, h *Harness, _ args) error {
	_, err := h.journal.ToggleDarkMode(ctx)
	return err
}

func opAddSession(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("id", "")
	if err != nil {
		return err
	}
	sub, dosage, err := substanceArgs(a)
	if err != nil {
		return err
	}
	tags, err := a.stringList("tags")
	if err != nil {
		return err
	}
	completed, err := a.boolean("completed", false)
	if err != nil {
		return err
	}
	mood, err := a.integer("mood", 5)
	if err != nil {
		return err
	}

	pa := testutil.PhaseA(sub, dosage, h.clock.Now())
	pa.Mood = mood
	session := testutil.Session(id, pa, tags...)
	session.IsCompleted = completed
	_, err = h.journal.AddSession(ctx, session)
	return err
}

// substanceArgs reads substance (default LSD) and dosage (default 100).
func substanceArgs(a args) (domain.Substance, float64, error) {
	raw, err := a.str("substance", string(domain.SubstanceLSD))
	if err != nil {
		return "", 0, err
	}
	sub, err := domain.ParseSubstance(raw)
	if err != nil {
		return "", 0, &argError{"substance", err.Error()}
	}
	dosage, err := a.float("dosage", 100)
	if err != nil {
		return "", 0, err
	}
	return sub, dosage, nil
}

func opUpdateTags(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	tags, err := a.stringList("tags")
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []string{}
	}
	_, err = h.journal.UpdateSession(ctx, id, state.SessionPatch{Tags: &tags})
	return err
}

// outcomeArgs reads the outcome sliders; each defaults to 5.
func outcomeArgs(a args) (workflow.OutcomeInput, error) {
	var in workflow.OutcomeInput
	for key, dst := range map[string]*int{
		"mood":             &in.Mood,
		"attention":        &in.Attention,
		"well_being":       &in.WellBeing,
		"energy":           &in.Energy,
		"life_orientation": &in.LifeOrientation,
	} {
		v, err := a.integer(key, 5)
		if err != nil {
			return workflow.OutcomeInput{}, err
		}
		*dst = v
	}
	return in, nil
}

func opLand(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	debrief, err := a.str("debrief", "")
	if err != nil {
		return err
	}
	in, err := outcomeArgs(a)
	if err != nil {
		return err
	}
	tags, err := a.stringList("tags")
	if err != nil {
		return err
	}

	landing, err := workflow.NewLanding(h.journal, id)
	if err != nil {
		return err
	}
	landing.SetDebrief(debrief)
	landing.Next()
	landing.SetOutcome(domain.DayOutcome{
		Outcome: domain.Outcome{
			Mood:      in.Mood,
			Attention: in.Attention,
			WellBeing: in.WellBeing,
			Energy:    in.Energy,
		},
		LifeOrientation: in.LifeOrientation,
	})
	landing.Next()
	if tags != nil {
		if err := landing.SetTags(tags); err != nil {
			return err
		}
	}
	landing.Next()
	_, err = landing.Commit(ctx)
	return err
}

func opRetro(ctx context.Context, h *Harness, a args) error {
	in := workflow.DefaultRetroInput(h.clock.Now())
	var err error
	if in.Substance, in.Dosage, err = substanceArgs(a); err != nil {
		return err
	}
	if in.Debrief, err = a.str("debrief", ""); err != nil {
		return err
	}
	if tags, err := a.stringList("tags"); err != nil {
		return err
	} else if tags != nil {
		in.Tags = tags
	}
	if in.Timestamp, err = a.timestamp("timestamp", in.Timestamp); err != nil {
		return err
	}
	_, err = workflow.Retrospective(ctx, h.journal, in)
	return err
}

func opRecordOutcome(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	raw, err := a.str("horizon", string(domain.HorizonOneDay))
	if err != nil {
		return err
	}
	horizon, err := domain.ParseHorizon(raw)
	if err != nil {
		return err
	}
	in, err := outcomeArgs(a)
	if err != nil {
		return err
	}
	_, err = h.editor.RecordOutcome(ctx, id, horizon, in)
	return err
}

func opAppendLog(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	content, err := a.str("content", "")
	if err != nil {
		return err
	}
	typ, err := a.str("type", "")
	if err != nil {
		return err
	}
	_, err = h.editor.AppendLog(ctx, id, content, typ)
	return err
}

func opSaveNotes(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	notes, err := a.str("notes", "")
	if err != nil {
		return err
	}
	_, err = h.editor.SaveNotes(ctx, id, notes)
	return err
}

func opQuickTag(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	tag, err := a.str("tag", "")
	if err != nil {
		return err
	}
	_, err = h.editor.QuickTag(ctx, id, tag)
	return err
}

func opDuplicate(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("session", "")
	if err != nil {
		return err
	}
	_, err = h.editor.DuplicateToDraft(ctx, id)
	return err
}

// opIntake walks the intake wizard. The draft is written on every change;
// submit (default true) commits it as a session.
func opIntake(ctx context.Context, h *Harness, a args) error {
	intention, err := a.str("intention", "Observe")
	if err != nil {
		return err
	}
	sub, dosage, err := substanceArgs(a)
	if err != nil {
		return err
	}
	tags, err := a.stringList("tags")
	if err != nil {
		return err
	}
	mood, err := a.integer("mood", 5)
	if err != nil {
		return err
	}
	submit, err := a.boolean("submit", true)
	if err != nil {
		return err
	}

	in := workflow.NewIntake(h.journal,
		workflow.WithAdvisor(h.advisor),
		workflow.WithClock(h.clock),
		workflow.WithLogger(h.logger),
	)
	if err := in.SetIntention(ctx, intention); err != nil {
		return err
	}
	if err := in.Next(); err != nil {
		return err
	}
	if tags != nil {
		if err := in.SetTags(ctx, tags); err != nil {
			return err
		}
	}
	if err := in.SetSubstance(ctx, sub, dosage); err != nil {
		return err
	}
	if err := in.SetSlider(ctx, workflow.SliderMood, mood); err != nil {
		return err
	}
	f := in.Forecast(ctx)
	h.lastForecast = &f
	if !submit {
		return nil
	}
	_, err = in.Submit(ctx)
	return err
}

func opDiscardDraft(ctx context.Context, h *Harness, _ args) error {
	return h.journal.SetDraft(ctx, nil)
}

func opAddBaseline(ctx context.Context, h *Harness, a args) error {
	var b domain.Baseline
	for key, dst := range map[string]*int{
		"mood":        &b.Mood,
		"stress":      &b.Stress,
		"well_being":  &b.WellBeing,
		"mindfulness": &b.Mindfulness,
		"self_esteem": &b.SelfEsteem,
	} {
		v, err := a.integer(key, 5)
		if err != nil {
			return err
		}
		*dst = v
	}
	_, err := h.journal.AddBaseline(ctx, b)
	return err
}

func opTakeQuestionnaire(ctx context.Context, h *Harness, a args) error {
	id, err := a.str("id", "")
	if err != nil {
		return err
	}
	responses, err := a.answers("answers")
	if err != nil {
		return err
	}
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	tmpl, err := cat.Lookup(id)
	if err != nil {
		return err
	}
	result, err := catalog.NewResult(tmpl, responses)
	if err != nil {
		return err
	}
	_, err = h.journal.AddQuestionnaireResult(ctx, result)
	return err
}

func opForecast(ctx context.Context, h *Harness, a args) error {
	sub, dosage, err := substanceArgs(a)
	if err != nil {
		return err
	}
	plan := insight.Plan{Substance: sub, Dosage: dosage, Physical: domain.PhysicalFamiliar}
	f := h.advisor.Forecast(ctx, h.history(), plan)
	h.lastForecast = &f
	return nil
}

func opInsights(ctx context.Context, h *Harness, _ args) error {
	h.lastInsight = h.advisor.Insights(ctx, h.history())
	return nil
}
