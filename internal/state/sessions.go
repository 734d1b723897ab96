package state

import (
	"context"
	"strings"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
)

// AddSession appends session to the active profile and deletes the draft.
//
// An empty ID is filled from the id generator. The session's scaled fields
// and tags are validated before anything is written.
func (s *Store) AddSession(ctx context.Context, session domain.FlightSession) (domain.FlightSession, error) {
	const op = "add session"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user.ActiveProfile() == nil {
		return domain.FlightSession{}, domain.NoActiveProfile(op)
	}

	next := session.Clone()
	if strings.TrimSpace(next.ID) == "" {
		next.ID = s.ids.Generate()
	}
	tags, err := domain.NormalizeTags(next.Tags)
	if err != nil {
		return domain.FlightSession{}, err
	}
	next.Tags = tags
	normalizeSession(&next)
	for i := range next.PhaseB {
		if next.PhaseB[i].Timestamp.IsZero() {
			next.PhaseB[i].Timestamp = s.clock.Now()
		}
	}

	err = s.mutateUserLocked(ctx, op, func(u *domain.User) error {
		p := u.ActiveProfile()
		if p.Session(next.ID) != nil {
			return domain.Validation(op, "id", "session %q already exists", next.ID)
		}
		p.Sessions = append(p.Sessions, next)
		return nil
	})
	if err != nil {
		return domain.FlightSession{}, err
	}

	// The session is committed at this point. A failed draft delete is
	// logged and the in-memory draft is still dropped.
	s.draft = nil
	if err := s.backend.Delete(ctx, store.KeyDraft); err != nil {
		s.logger.Warn("draft delete failed after session commit", "session_id", next.ID, "error", err)
	}

	s.logger.Info("session added", "session_id", next.ID, "profile_id", s.user.CurrentProfileID)
	return next.Clone(), nil
}

// SessionPatch describes a partial session update. Nil fields are left
// untouched. Each phaseC horizon is replaced independently. Tags,
// DebriefText and Notes replace the stored value wholesale.
//
// PhaseB is append-only: AppendLogs adds entries after the existing ones
// and there is no way to replace or remove an entry.
type SessionPatch struct {
	PhaseA      *domain.PhaseA
	AppendLogs  []domain.LogEntry
	OneHour     *domain.Outcome
	OneDay      *domain.DayOutcome
	OneWeek     *domain.Outcome
	Tags        *[]string
	IsCompleted *bool
	DebriefText *string
	Notes       *string
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.PhaseA == nil && len(p.AppendLogs) == 0 &&
		p.OneHour == nil && p.OneDay == nil && p.OneWeek == nil &&
		p.Tags == nil && p.IsCompleted == nil && p.DebriefText == nil && p.Notes == nil
}

// UpdateSession applies patch to a session of the active profile.
//
// Sessions of other profiles are never searched: an id that only exists
// elsewhere yields NOT_FOUND. A completed session cannot be re-opened.
func (s *Store) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) (domain.FlightSession, error) {
	const op = "update session"

	var updated domain.FlightSession
	err := s.mutateActive(ctx, op, func(p *domain.Profile) error {
		sess := p.Session(sessionID)
		if sess == nil {
			return domain.NotFound(op, "session", sessionID)
		}
		if err := s.applyPatch(op, sess, patch); err != nil {
			return err
		}
		updated = sess.Clone()
		return nil
	})
	if err != nil {
		return domain.FlightSession{}, err
	}
	s.logger.Info("session updated", "session_id", sessionID, "completed", updated.IsCompleted)
	return updated, nil
}

func (s *Store) applyPatch(op string, sess *domain.FlightSession, patch SessionPatch) error {
	if patch.PhaseA != nil {
		sess.PhaseA = *patch.PhaseA
	}
	for _, entry := range patch.AppendLogs {
		if strings.TrimSpace(entry.Content) == "" && entry.FileURL == "" {
			return domain.Validation(op, "phaseB", "log entry needs content or a file")
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = s.clock.Now()
		}
		sess.PhaseB = append(sess.PhaseB, entry)
	}
	if patch.OneHour != nil {
		v := *patch.OneHour
		sess.PhaseC.OneHour = &v
	}
	if patch.OneDay != nil {
		v := *patch.OneDay
		sess.PhaseC.OneDay = &v
	}
	if patch.OneWeek != nil {
		v := *patch.OneWeek
		sess.PhaseC.OneWeek = &v
	}
	if patch.Tags != nil {
		tags, err := domain.NormalizeTags(*patch.Tags)
		if err != nil {
			return err
		}
		sess.Tags = tags
	}
	if patch.IsCompleted != nil {
		if sess.IsCompleted && !*patch.IsCompleted {
			return domain.Validation(op, "isCompleted", "a completed session cannot be re-opened")
		}
		sess.IsCompleted = *patch.IsCompleted
	}
	if patch.DebriefText != nil {
		sess.DebriefText = *patch.DebriefText
	}
	if patch.Notes != nil {
		sess.Notes = *patch.Notes
	}
	return nil
}
