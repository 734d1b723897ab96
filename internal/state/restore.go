package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
)

// ImportBrowserDump replaces the stored state with the contents of a
// browser local-storage export. Every value in the dump is decoded and
// validated before anything is written, and the writes land in one
// transaction: a rejected dump leaves user, draft and dark mode as they
// were. The previous aggregate stays available as a revision.
func (s *Store) ImportBrowserDump(ctx context.Context, dump store.BrowserDump) (*domain.User, error) {
	const op = "import"

	if dump.User == nil {
		return nil, domain.Validation(op, "user", "dump contains no user")
	}
	var user domain.User
	if err := json.Unmarshal(dump.User, &user); err != nil {
		return nil, domain.Validation(op, "user", "decode user: %v", err)
	}
	next := user.Clone()
	normalizeUser(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	docs := []store.Document{{Key: store.KeyUser, Value: next}}

	var draft *domain.DraftSession
	if dump.Draft != nil {
		draft = &domain.DraftSession{}
		if err := json.Unmarshal(dump.Draft, draft); err != nil {
			return nil, domain.Validation(op, "draft", "decode draft: %v", err)
		}
	}

	var dark *bool
	if dump.Dark != nil {
		dark = new(bool)
		if err := json.Unmarshal(dump.Dark, dark); err != nil {
			return nil, domain.Validation(op, "dark", "decode dark mode: %v", err)
		}
		docs = append(docs, store.Document{Key: store.KeyDarkMode, Value: *dark})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if draft != nil {
		prepared, err := s.prepareDraftLocked(draft)
		if err != nil {
			return nil, err
		}
		draft = prepared
		docs = append(docs, store.Document{Key: store.KeyDraft, Value: draft})
	}

	if err := s.backend.PutAll(ctx, docs...); err != nil {
		return nil, persistErr(op, err)
	}
	s.user = next
	if draft != nil {
		s.draft = draft
	}
	if dark != nil {
		s.dark = *dark
	}

	s.logger.Info("browser dump imported", "profiles", len(next.Profiles))
	return next.Clone(), nil
}

// RevisionLoader reads historical document bodies. *store.Store implements it.
type RevisionLoader interface {
	LoadRevision(ctx context.Context, key string, seq int64, dst any) error
}

// RestoreUserRevision replaces the user with a stored revision. The
// restored aggregate is validated and written as a new revision.
func (s *Store) RestoreUserRevision(ctx context.Context, seq int64) (*domain.User, error) {
	loader, ok := s.backend.(RevisionLoader)
	if !ok {
		return nil, domain.Persistence("restore revision", fmt.Errorf("backend %T keeps no revisions", s.backend))
	}
	var user domain.User
	if err := loader.LoadRevision(ctx, store.KeyUser, seq, &user); err != nil {
		return nil, err
	}
	if err := s.SaveUser(ctx, &user); err != nil {
		return nil, err
	}
	s.logger.Info("user revision restored", "seq", seq)
	return s.User(), nil
}
