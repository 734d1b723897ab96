package state

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
)

// Backend is the durable key-value storage behind a Store.
// *store.Store implements it.
type Backend interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Put(ctx context.Context, key string, v any) error
	PutAll(ctx context.Context, docs ...store.Document) error
	Delete(ctx context.Context, key string) error
}

// Store is the journal's state container.
//
// Thread-safety: all methods are safe for concurrent use; mutations are
// serialized by an internal mutex.
type Store struct {
	mu      sync.Mutex
	backend Backend
	clock   Clock
	ids     IDGenerator
	logger  *slog.Logger

	user  *domain.User
	draft *domain.DraftSession
	dark  bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithIDGenerator sets the id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store over backend. Call LoadUser before use to restore
// persisted state; a fresh Store behaves as if nothing was ever stored.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		clock:   SystemClock{},
		ids:     UUIDv7Generator{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		dark:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadUser restores the user, draft and dark-mode flag from the backend.
// It returns nil when no user has been stored yet.
func (s *Store) LoadUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user domain.User
	found, err := s.backend.Get(ctx, store.KeyUser, &user)
	if err != nil {
		return nil, persistErr("load user", err)
	}

	var draft domain.DraftSession
	hasDraft, err := s.backend.Get(ctx, store.KeyDraft, &draft)
	if err != nil {
		return nil, persistErr("load draft", err)
	}

	dark := true
	if _, err := s.backend.Get(ctx, store.KeyDarkMode, &dark); err != nil {
		return nil, persistErr("load dark mode", err)
	}

	s.user = nil
	if found {
		normalizeUser(&user)
		if user.CurrentProfileID != "" && user.Profile(user.CurrentProfileID) == nil {
			s.logger.Warn("stored active profile does not exist; clearing selection", "profile_id", user.CurrentProfileID)
			user.CurrentProfileID = ""
		}
		s.user = &user
	}
	s.draft = nil
	if hasDraft {
		s.draft = &draft
	}
	s.dark = dark

	s.logger.Debug("state loaded", "has_user", found, "has_draft", hasDraft, "dark_mode", dark)
	return s.user.Clone(), nil
}

// User returns a copy of the current user, or nil before login.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// ActiveProfile returns a copy of the profile CurrentProfileID resolves to,
// or nil when there is no user, the id is unset, or it dangles.
func (s *Store) ActiveProfile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.user.ActiveProfile()
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &c
}

// Session returns a copy of a session in the active profile.
func (s *Store) Session(id string) (domain.FlightSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.user.ActiveProfile()
	if p == nil {
		return domain.FlightSession{}, domain.NoActiveProfile("get session")
	}
	sess := p.Session(id)
	if sess == nil {
		return domain.FlightSession{}, domain.NotFound("get session", "session", id)
	}
	return sess.Clone(), nil
}

// mutateUser runs fn against a copy of the user and commits it only if fn
// succeeds, the result validates and the backend accepts the write.
func (s *Store) mutateUser(ctx context.Context, op string, fn func(u *domain.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutateUserLocked(ctx, op, fn)
}

func (s *Store) mutateUserLocked(ctx context.Context, op string, fn func(u *domain.User) error) error {
	if s.user == nil {
		return domain.Validation(op, "user", "no user is signed in")
	}
	next := s.user.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.backend.Put(ctx, store.KeyUser, next); err != nil {
		return persistErr(op, err)
	}
	s.user = next
	return nil
}

// mutateActive is mutateUser for operations scoped to the active profile.
func (s *Store) mutateActive(ctx context.Context, op string, fn func(p *domain.Profile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user.ActiveProfile() == nil {
		return domain.NoActiveProfile(op)
	}
	return s.mutateUserLocked(ctx, op, func(u *domain.User) error {
		return fn(u.ActiveProfile())
	})
}

func persistErr(op string, err error) error {
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.Persistence(op, err)
}

// normalizeUser replaces nil collections so that stored and exported JSON
// always carries arrays, never null.
func normalizeUser(u *domain.User) {
	if u.Profiles == nil {
		u.Profiles = []domain.Profile{}
	}
	for i := range u.Profiles {
		p := &u.Profiles[i]
		if p.Sessions == nil {
			p.Sessions = []domain.FlightSession{}
		}
		if p.Baselines == nil {
			p.Baselines = []domain.Baseline{}
		}
		if p.Questionnaires == nil {
			p.Questionnaires = []domain.QuestionnaireData{}
		}
		for j := range p.Sessions {
			normalizeSession(&p.Sessions[j])
		}
	}
}

func normalizeSession(s *domain.FlightSession) {
	if s.PhaseB == nil {
		s.PhaseB = []domain.LogEntry{}
	}
	if s.Questionnaires == nil {
		s.Questionnaires = []domain.QuestionnaireData{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
}
