package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
	"github.com/roach88/blackbox/internal/testutil"
)

var t0 = time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)

func sampleSession(id string) domain.FlightSession {
	return testutil.Session(id, testutil.PhaseA(domain.SubstanceLSD, 100, t0))
}

func TestAddSessionAppendsToActiveProfile(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()

	got, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.False(t, got.IsCompleted)

	p := s.ActiveProfile()
	require.Len(t, p.Sessions, 1)
	assert.Equal(t, 100.0, p.Sessions[0].PhaseA.Dosage)
}

func TestAddSessionGeneratesID(t *testing.T) {
	s := loggedIn(t)
	got, err := s.AddSession(context.Background(), sampleSession(""))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
}

func TestAddSessionRejectsDuplicateID(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	_, err = s.AddSession(ctx, sampleSession("s1"))
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, s.ActiveProfile().Sessions, 1)
}

func TestAddSessionRejectsOutOfRange(t *testing.T) {
	s := loggedIn(t)
	sess := sampleSession("s1")
	sess.PhaseA.Stress = 11

	_, err := s.AddSession(context.Background(), sess)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, s.ActiveProfile().Sessions)
}

// Scenario: a session's dosage survives a tags-only update.
func TestUpdateSessionTagsOnly(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	tags := []string{"SOLO"}
	got, err := s.UpdateSession(ctx, "s1", SessionPatch{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.PhaseA.Dosage)
	assert.Equal(t, []string{"SOLO"}, got.Tags)

	stored, err := s.Session("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SOLO"}, stored.Tags)
}

// Scenario: the landing commit marks the session complete in one update.
func TestUpdateSessionLandingCommit(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	done := true
	debrief := "Calm"
	tags := []string{"INTEGRATION"}
	got, err := s.UpdateSession(ctx, "s1", SessionPatch{
		IsCompleted: &done,
		DebriefText: &debrief,
		Tags:        &tags,
		OneDay:      &domain.DayOutcome{Outcome: testutil.Outcome(6, 7, 8, 5), LifeOrientation: 6},
	})
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "Calm", got.DebriefText)
	require.NotNil(t, got.PhaseC.OneDay)
	assert.Equal(t, 8, got.PhaseC.OneDay.WellBeing)
	assert.Equal(t, []string{"INTEGRATION"}, got.Tags)
}

func TestUpdateSessionCannotReopen(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	done := true
	_, err = s.UpdateSession(ctx, "s1", SessionPatch{IsCompleted: &done})
	require.NoError(t, err)

	open := false
	_, err = s.UpdateSession(ctx, "s1", SessionPatch{IsCompleted: &open})
	assert.True(t, domain.IsValidation(err))

	// Editing a completed session is still allowed.
	notes := "Revisited"
	got, err := s.UpdateSession(ctx, "s1", SessionPatch{Notes: &notes})
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "Revisited", got.Notes)
}

func TestUpdateSessionRejectsOutOfRangeOutcome(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	bad := testutil.Outcome(5, 5, 0, 5)
	_, err = s.UpdateSession(ctx, "s1", SessionPatch{OneHour: &bad})
	assert.True(t, domain.IsValidation(err))

	stored, err := s.Session("s1")
	require.NoError(t, err)
	assert.Nil(t, stored.PhaseC.OneHour)
}

func TestUpdateSessionUnknownID(t *testing.T) {
	s := loggedIn(t)
	notes := "x"
	_, err := s.UpdateSession(context.Background(), "missing", SessionPatch{Notes: &notes})
	assert.True(t, domain.IsNotFound(err))
}

// With no active profile every profile-scoped mutation is refused.
func TestNoActiveProfileGuards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *Store
	}{
		{
			name: "unset",
			setup: func(t *testing.T) *Store {
				s := loggedIn(t)
				u := s.User()
				u.CurrentProfileID = ""
				require.NoError(t, s.SaveUser(context.Background(), u))
				return s
			},
		},
		{
			name:  "dangling",
			setup: storeWithDanglingProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(t)
			ctx := context.Background()
			before := s.User()
			require.Nil(t, s.ActiveProfile())

			_, err := s.AddSession(ctx, sampleSession("s1"))
			assert.True(t, domain.IsNoActiveProfile(err))

			_, err = s.AddBaseline(ctx, domain.NeutralBaseline(t0))
			assert.True(t, domain.IsNoActiveProfile(err))

			_, err = s.AddQuestionnaireResult(ctx, domain.QuestionnaireData{
				QuestionnaireID: "meq",
				Responses:       map[string]domain.Answer{"q1": domain.NumberAnswer(3)},
			})
			assert.True(t, domain.IsNoActiveProfile(err))

			notes := "x"
			_, err = s.UpdateSession(ctx, "s0", SessionPatch{Notes: &notes})
			assert.True(t, domain.IsNoActiveProfile(err))

			assert.Equal(t, before.Profiles, s.User().Profiles)
		})
	}
}

// storeWithDanglingProfile loads a user whose stored currentProfileId names
// a profile that no longer exists. The profile holds one session, s0.
func storeWithDanglingProfile(t *testing.T) *Store {
	t.Helper()
	s, backend := newTestStore(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "a@b.com")
	require.NoError(t, err)
	_, err = s.AddSession(ctx, sampleSession("s0"))
	require.NoError(t, err)

	u := s.User()
	u.CurrentProfileID = "gone"
	require.NoError(t, backend.Put(ctx, store.KeyUser, u))

	reloaded := New(backend,
		WithClock(testutil.NewDeterministicClock(testutil.Epoch, time.Minute)),
		WithIDGenerator(testutil.NewSequentialIDs("re")),
	)
	_, err = reloaded.LoadUser(ctx)
	require.NoError(t, err)
	return reloaded
}

func TestNoUserGuards(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddSession(context.Background(), sampleSession("s1"))
	assert.True(t, domain.IsNoActiveProfile(err))
}

// Log appends keep order and never rewrite earlier entries.
func TestPhaseBAppendOnly(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	var snapshots [][]domain.LogEntry
	for _, content := range []string{"onset", "peak", "comedown"} {
		got, err := s.UpdateSession(ctx, "s1", SessionPatch{
			AppendLogs: []domain.LogEntry{{Content: content, Type: domain.LogText}},
		})
		require.NoError(t, err)
		snapshots = append(snapshots, got.PhaseB)
	}

	final := snapshots[len(snapshots)-1]
	require.Len(t, final, 3)
	assert.Equal(t, "onset", final[0].Content)
	assert.Equal(t, "peak", final[1].Content)
	assert.Equal(t, "comedown", final[2].Content)
	for i, snap := range snapshots {
		assert.Len(t, snap, i+1)
		assert.Equal(t, snap, final[:i+1])
	}
	assert.True(t, final[0].Timestamp.Before(final[2].Timestamp))
}

func TestPhaseBRejectsEmptyEntry(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	_, err = s.UpdateSession(ctx, "s1", SessionPatch{AppendLogs: []domain.LogEntry{{Content: "  "}}})
	assert.True(t, domain.IsValidation(err))
}

// Each outcome horizon is written independently.
func TestPhaseCHorizonIndependence(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	_, err := s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	day := domain.DayOutcome{Outcome: testutil.Outcome(6, 6, 6, 6), LifeOrientation: 7}
	week := testutil.Outcome(8, 8, 8, 8)
	_, err = s.UpdateSession(ctx, "s1", SessionPatch{OneDay: &day, OneWeek: &week})
	require.NoError(t, err)

	hour := testutil.Outcome(3, 3, 3, 3)
	got, err := s.UpdateSession(ctx, "s1", SessionPatch{OneHour: &hour})
	require.NoError(t, err)
	assert.Equal(t, hour, *got.PhaseC.OneHour)
	assert.Equal(t, day, *got.PhaseC.OneDay)
	assert.Equal(t, week, *got.PhaseC.OneWeek)

	newDay := domain.DayOutcome{Outcome: testutil.Outcome(9, 9, 9, 9), LifeOrientation: 9}
	got, err = s.UpdateSession(ctx, "s1", SessionPatch{OneDay: &newDay})
	require.NoError(t, err)
	assert.Equal(t, hour, *got.PhaseC.OneHour)
	assert.Equal(t, week, *got.PhaseC.OneWeek)
	assert.Equal(t, newDay, *got.PhaseC.OneDay)
}

// Sessions of a non-active profile are invisible to UpdateSession.
func TestProfileIsolation(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	alpha := s.ActiveProfile().ID

	_, err := s.AddSession(ctx, sampleSession("alpha-1"))
	require.NoError(t, err)

	beta, err := s.AddProfile(ctx, "Subject Beta")
	require.NoError(t, err)
	_, err = s.AddSession(ctx, sampleSession("beta-1"))
	require.NoError(t, err)

	notes := "cross"
	_, err = s.UpdateSession(ctx, "alpha-1", SessionPatch{Notes: &notes})
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, s.SetActiveProfile(ctx, alpha))
	_, err = s.UpdateSession(ctx, "beta-1", SessionPatch{Notes: &notes})
	assert.True(t, domain.IsNotFound(err))

	user := s.User()
	betaProfile := user.Profile(beta.ID)
	alphaProfile := user.Profile(alpha)
	require.Len(t, alphaProfile.Sessions, 1)
	require.Len(t, betaProfile.Sessions, 1)
	assert.Empty(t, alphaProfile.Sessions[0].Notes)
	assert.Empty(t, betaProfile.Sessions[0].Notes)
	assert.Equal(t, "alpha-1", alphaProfile.Sessions[0].ID)
	assert.Equal(t, "beta-1", betaProfile.Sessions[0].ID)
}

func TestSessionsSurviveReload(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "a@b.com")
	require.NoError(t, err)
	_, err = s.AddSession(ctx, sampleSession("s1"))
	require.NoError(t, err)

	reloaded := New(backend)
	_, err = reloaded.LoadUser(ctx)
	require.NoError(t, err)
	sess, err := reloaded.Session("s1")
	require.NoError(t, err)
	assert.True(t, t0.Equal(sess.PhaseA.Timestamp))
	assert.NotNil(t, sess.PhaseB)
	assert.NotNil(t, sess.Tags)
}

func TestSessionIDsSurviveReloadByteForByte(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "a@b.com")
	require.NoError(t, err)

	decomposed := "cafe\u0301"
	_, err = s.AddSession(ctx, sampleSession(decomposed))
	require.NoError(t, err)

	reloaded := New(backend)
	_, err = reloaded.LoadUser(ctx)
	require.NoError(t, err)
	sess, err := reloaded.Session(decomposed)
	require.NoError(t, err)
	assert.Equal(t, decomposed, sess.ID)
}
