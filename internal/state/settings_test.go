package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDarkModeDefaultsOn(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.LoadUser(context.Background())
	require.NoError(t, err)
	assert.True(t, s.DarkMode())
}

func TestToggleDarkModePersists(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	on, err := s.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	reloaded := New(backend)
	_, err = reloaded.LoadUser(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded.DarkMode())

	require.NoError(t, reloaded.SetDarkMode(ctx, true))
	assert.True(t, reloaded.DarkMode())
}

func TestToggleDarkModeFailureKeepsValue(t *testing.T) {
	backend := &flakyBackend{Store: openBackend(t)}
	s := New(backend)
	backend.setFailPut(true)

	on, err := s.ToggleDarkMode(context.Background())
	require.Error(t, err)
	assert.True(t, on)
	assert.True(t, s.DarkMode())
}
