package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/state"
	"github.com/roach88/blackbox/internal/store"
	"github.com/roach88/blackbox/internal/testutil"
)

type fixture struct {
	journal *state.Store
	backend *store.Store
	clock   *testutil.DeterministicClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	clock := testutil.NewDeterministicClock(testutil.Epoch, time.Minute)
	j := state.New(backend,
		state.WithClock(clock),
		state.WithIDGenerator(testutil.NewSequentialIDs("id")),
	)
	_, err = j.Login(context.Background(), "a@b.com")
	require.NoError(t, err)
	return fixture{journal: j, backend: backend, clock: clock}
}

// activeSession stores an active LSD session and returns its id.
func (f fixture) activeSession(t *testing.T, tags ...string) string {
	t.Helper()
	s, err := f.journal.AddSession(context.Background(),
		testutil.Session("", testutil.PhaseA(domain.SubstanceLSD, 100, testutil.Epoch), tags...))
	require.NoError(t, err)
	return s.ID
}
