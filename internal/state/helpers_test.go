package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/store"
	"github.com/roach88/blackbox/internal/testutil"
)

// flakyBackend wraps a real store and fails writes on demand.
type flakyBackend struct {
	*store.Store
	mu       sync.Mutex
	failPut  bool
	failDel  bool
	putCalls int
}

var errDiskFull = errors.New("disk full")

func (f *flakyBackend) Put(ctx context.Context, key string, v any) error {
	f.mu.Lock()
	f.putCalls++
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.Put(ctx, key, v)
}

func (f *flakyBackend) PutAll(ctx context.Context, docs ...store.Document) error {
	f.mu.Lock()
	f.putCalls++
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.PutAll(ctx, docs...)
}

func (f *flakyBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDel
	f.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return f.Store.Delete(ctx, key)
}

func (f *flakyBackend) setFailPut(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = v
}

func openBackend(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestStore returns a state Store over an in-memory database with a
// deterministic clock and sequential ids.
func newTestStore(t *testing.T) (*Store, *store.Store) {
	t.Helper()
	backend := openBackend(t)
	s := New(backend,
		WithClock(testutil.NewDeterministicClock(testutil.Epoch, time.Minute)),
		WithIDGenerator(testutil.NewSequentialIDs("id")),
	)
	return s, backend
}

// loggedIn returns a Store after the mock login.
func loggedIn(t *testing.T) *Store {
	t.Helper()
	s, _ := newTestStore(t)
	_, err := s.Login(context.Background(), "a@b.com")
	require.NoError(t, err)
	return s
}
