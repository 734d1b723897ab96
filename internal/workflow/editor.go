package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/state"
)

// Editor performs the edits offered on a session's detail view. Every
// method is one store update.
type Editor struct {
	journal Journal
	clock   state.Clock
}

// NewEditor returns an Editor writing through j. A nil clock uses the
// system clock.
func NewEditor(j Journal, clock state.Clock) *Editor {
	if clock == nil {
		clock = state.SystemClock{}
	}
	return &Editor{journal: j, clock: clock}
}

// OutcomeInput is one horizon's sliders. LifeOrientation is only stored
// for the 24h horizon; zero means neutral.
type OutcomeInput struct {
	Mood            int
	Attention       int
	WellBeing       int
	Energy          int
	LifeOrientation int
}

// RecordOutcome writes the snapshot for horizon h, leaving the other
// horizons alone. Every value must be in 1-10.
func (e *Editor) RecordOutcome(ctx context.Context, id string, h domain.Horizon, in OutcomeInput) (domain.FlightSession, error) {
	o := domain.Outcome{Mood: in.Mood, Attention: in.Attention, WellBeing: in.WellBeing, Energy: in.Energy}
	if err := o.Validate("phaseC." + string(h)); err != nil {
		return domain.FlightSession{}, err
	}

	var patch state.SessionPatch
	switch h {
	case domain.HorizonOneHour:
		patch.OneHour = &o
	case domain.HorizonOneWeek:
		patch.OneWeek = &o
	case domain.HorizonOneDay:
		lo := in.LifeOrientation
		if lo == 0 {
			lo = 5
		}
		day := domain.DayOutcome{Outcome: o, LifeOrientation: lo}
		if err := day.Validate("phaseC.oneDay"); err != nil {
			return domain.FlightSession{}, err
		}
		patch.OneDay = &day
	default:
		return domain.FlightSession{}, domain.Validation("record outcome", "horizon", "unknown horizon %q", h)
	}
	return e.journal.UpdateSession(ctx, id, patch)
}

// SaveNotes replaces the integration notes.
func (e *Editor) SaveNotes(ctx context.Context, id, notes string) (domain.FlightSession, error) {
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{Notes: &notes})
}

// AppendLog adds a log entry stamped now. Blank content is rejected; an
// empty type means plain text.
func (e *Editor) AppendLog(ctx context.Context, id, content, typ string) (domain.FlightSession, error) {
	if strings.TrimSpace(content) == "" {
		return domain.FlightSession{}, domain.Validation("append log", "content", "log entry is empty")
	}
	if typ == "" {
		typ = domain.LogText
	}
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{
		AppendLogs: []domain.LogEntry{{Timestamp: e.clock.Now(), Content: content, Type: typ}},
	})
}

// AttachFile adds a file log entry. fileURL is usually a data URL.
func (e *Editor) AttachFile(ctx context.Context, id, fileName, fileURL string) (domain.FlightSession, error) {
	if fileName == "" || fileURL == "" {
		return domain.FlightSession{}, domain.Validation("attach file", "file", "file name and content are required")
	}
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{
		AppendLogs: []domain.LogEntry{{
			Timestamp: e.clock.Now(),
			Content:   fmt.Sprintf("File upload: %s", fileName),
			Type:      domain.LogFile,
			FileURL:   fileURL,
			FileName:  fileName,
		}},
	})
}

// QuickTag trims and upper-cases raw and appends it unless the session
// already carries it. A blank tag changes nothing.
func (e *Editor) QuickTag(ctx context.Context, id, raw string) (domain.FlightSession, error) {
	tag := domain.QuickTag(raw)
	sess, err := e.journal.Session(id)
	if err != nil {
		return domain.FlightSession{}, err
	}
	if tag == "" || domain.HasTag(sess.Tags, tag) {
		return sess, nil
	}
	tags := append(append([]string{}, sess.Tags...), tag)
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{Tags: &tags})
}

// SetTags replaces the session's tags.
func (e *Editor) SetTags(ctx context.Context, id string, tags []string) (domain.FlightSession, error) {
	tags = append([]string{}, tags...)
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{Tags: &tags})
}

// EditFlight replaces the intake and the debrief. The log is not editable.
func (e *Editor) EditFlight(ctx context.Context, id string, phaseA domain.PhaseA, debrief string) (domain.FlightSession, error) {
	return e.journal.UpdateSession(ctx, id, state.SessionPatch{PhaseA: &phaseA, DebriefText: &debrief})
}

// DuplicateToDraft copies a session's intake and tags into the draft with
// a fresh timestamp, replacing any draft in progress.
func (e *Editor) DuplicateToDraft(ctx context.Context, id string) (*domain.DraftSession, error) {
	sess, err := e.journal.Session(id)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	phaseA := sess.PhaseA
	phaseA.Timestamp = now
	draft := &domain.DraftSession{
		PhaseA:    domain.DraftFrom(phaseA),
		Tags:      append([]string{}, sess.Tags...),
		LastSaved: now,
	}
	if err := e.journal.SetDraft(ctx, draft); err != nil {
		return nil, err
	}
	return e.journal.Draft(), nil
}
