package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
)

func TestRetrospective(t *testing.T) {
	f := newFixture(t)
	in := DefaultRetroInput(time.Date(2026, 1, 20, 22, 0, 0, 0, time.UTC))
	in.Debrief = "Looking back"
	in.Mood = 7
	in.Tags = []string{"PAST"}

	res, err := Retrospective(context.Background(), f.journal, in)
	require.NoError(t, err)
	assert.True(t, res.WellBeingEstimated)

	s := res.Session
	assert.True(t, s.IsCompleted)
	assert.Equal(t, "Looking back", s.DebriefText)
	assert.Equal(t, RetroIntentions, s.PhaseA.IntentionsText)
	assert.Equal(t, 5, s.PhaseA.SelfEsteem)
	assert.Equal(t, 5, s.PhaseA.Responsibilities)
	require.NotNil(t, s.PhaseC.OneDay)
	assert.Equal(t, domain.DayOutcome{
		Outcome:         domain.Outcome{Mood: 7, Attention: 5, WellBeing: 8, Energy: 5},
		LifeOrientation: 5,
	}, *s.PhaseC.OneDay)
	assert.Nil(t, s.PhaseC.OneHour)
	assert.Equal(t, []string{"PAST"}, s.Tags)
	assert.Len(t, f.journal.ActiveProfile().Sessions, 1)
}

func TestRetrospectiveValidates(t *testing.T) {
	f := newFixture(t)
	in := DefaultRetroInput(time.Date(2026, 1, 20, 22, 0, 0, 0, time.UTC))
	in.Stress = 0
	_, err := Retrospective(context.Background(), f.journal, in)
	assert.True(t, domain.IsValidation(err))

	_, err = Retrospective(context.Background(), f.journal, DefaultRetroInput(time.Time{}))
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, f.journal.ActiveProfile().Sessions)
}
