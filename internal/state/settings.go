package state

import (
	"context"

	"github.com/roach88/blackbox/internal/store"
)

// DarkMode reports the display preference. Defaults to true.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetDarkMode stores the display preference.
func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Put(ctx, store.KeyDarkMode, on); err != nil {
		return persistErr("set dark mode", err)
	}
	s.dark = on
	return nil
}

// ToggleDarkMode flips the display preference and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := !s.dark
	if err := s.backend.Put(ctx, store.KeyDarkMode, next); err != nil {
		return s.dark, persistErr("toggle dark mode", err)
	}
	s.dark = next
	return next, nil
}
