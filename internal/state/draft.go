package state

import (
	"context"
	"time"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
)

// DefaultAutosaveInterval is how often Autosave re-persists the draft.
const DefaultAutosaveInterval = 30 * time.Second

// Draft returns a copy of the current draft, or nil.
func (s *Store) Draft() *domain.DraftSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// SetDraft replaces the draft wholesale; nil deletes it.
//
// Draft sliders are not range-checked: the intake keeps whatever was
// entered and flags it, and validation happens when the session is added.
// Tags are normalized. LastSaved is stamped when zero.
func (s *Store) SetDraft(ctx context.Context, draft *domain.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft == nil {
		if err := s.backend.Delete(ctx, store.KeyDraft); err != nil {
			return persistErr("discard draft", err)
		}
		s.draft = nil
		return nil
	}

	next, err := s.prepareDraftLocked(draft)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, store.KeyDraft, next); err != nil {
		return persistErr("save draft", err)
	}
	s.draft = next
	return nil
}

// prepareDraftLocked returns the copy of draft that SetDraft would store.
func (s *Store) prepareDraftLocked(draft *domain.DraftSession) (*domain.DraftSession, error) {
	next := draft.Clone()
	if len(next.Tags) > 0 {
		tags, err := domain.NormalizeTags(next.Tags)
		if err != nil {
			return nil, err
		}
		next.Tags = tags
	}
	if next.LastSaved.IsZero() {
		next.LastSaved = s.clock.Now()
	}
	return next, nil
}

// SaveDraftNow re-persists the current draft with a fresh LastSaved stamp.
// It does nothing when there is no draft.
func (s *Store) SaveDraftNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return nil
	}
	next := s.draft.Clone()
	next.LastSaved = s.clock.Now()
	if err := s.backend.Put(ctx, store.KeyDraft, next); err != nil {
		return persistErr("autosave draft", err)
	}
	s.draft = next
	return nil
}

// Autosave calls SaveDraftNow every interval until ctx is cancelled, then
// returns ctx.Err(). Failed saves are logged and retried on the next tick.
func (s *Store) Autosave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SaveDraftNow(ctx); err != nil {
				s.logger.Warn("draft autosave failed", "error", err)
			}
		}
	}
}
