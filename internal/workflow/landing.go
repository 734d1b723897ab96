package workflow

import (
	"context"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/state"
)

// LandingStep is a page of the landing wizard.
type LandingStep int

const (
	LandingDebrief LandingStep = iota
	LandingOutcomes
	LandingTags
	LandingCommit
)

// Landing completes an active session: debrief, 24h outcome sliders and
// tags are collected and written together by Commit.
type Landing struct {
	journal   Journal
	sessionID string

	step    LandingStep
	debrief string
	outcome domain.DayOutcome
	tags    []string
}

// NeutralDayOutcome is the slider position a landing starts from.
func NeutralDayOutcome() domain.DayOutcome {
	return domain.DayOutcome{
		Outcome:         domain.Outcome{Mood: 5, Attention: 5, WellBeing: 5, Energy: 5},
		LifeOrientation: 5,
	}
}

// NewLanding opens the wizard on an active session of the active profile.
// Debrief and tags are prefilled from the session; the outcome starts from
// any stored 24h snapshot, else neutral. A completed session is refused.
func NewLanding(j Journal, sessionID string) (*Landing, error) {
	sess, err := j.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, domain.Validation("start landing", "isCompleted", "session %q has already landed", sessionID)
	}
	l := &Landing{
		journal:   j,
		sessionID: sessionID,
		debrief:   sess.DebriefText,
		outcome:   NeutralDayOutcome(),
		tags:      append([]string{}, sess.Tags...),
	}
	if sess.PhaseC.OneDay != nil {
		l.outcome = *sess.PhaseC.OneDay
	}
	return l, nil
}

// Step returns the current page.
func (l *Landing) Step() LandingStep { return l.step }

// SessionID returns the session being landed.
func (l *Landing) SessionID() string { return l.sessionID }

// Debrief returns the debrief text entered so far.
func (l *Landing) Debrief() string { return l.debrief }

// Outcome returns the outcome entered so far.
func (l *Landing) Outcome() domain.DayOutcome { return l.outcome }

// Tags returns the tags entered so far.
func (l *Landing) Tags() []string { return append([]string{}, l.tags...) }

// SetDebrief records the free-text debrief.
func (l *Landing) SetDebrief(text string) { l.debrief = text }

// SetOutcome records the 24h sliders. Ranges are checked on Commit.
func (l *Landing) SetOutcome(o domain.DayOutcome) { l.outcome = o }

// SetTags replaces the retrospective tags.
func (l *Landing) SetTags(tags []string) error {
	normalized, err := domain.NormalizeTags(tags)
	if err != nil {
		return err
	}
	l.tags = normalized
	return nil
}

// Next advances one page.
func (l *Landing) Next() {
	if l.step < LandingCommit {
		l.step++
	}
}

// Back returns to the previous page.
func (l *Landing) Back() {
	if l.step > LandingDebrief {
		l.step--
	}
}

// Commit marks the session completed and stores debrief, tags and the 24h
// outcome in a single update, so none of them is ever visible without the
// others.
func (l *Landing) Commit(ctx context.Context) (domain.FlightSession, error) {
	if err := l.outcome.Validate("phaseC.oneDay"); err != nil {
		return domain.FlightSession{}, err
	}
	done := true
	debrief := l.debrief
	tags := append([]string{}, l.tags...)
	outcome := l.outcome
	return l.journal.UpdateSession(ctx, l.sessionID, state.SessionPatch{
		IsCompleted: &done,
		DebriefText: &debrief,
		Tags:        &tags,
		OneDay:      &outcome,
	})
}
