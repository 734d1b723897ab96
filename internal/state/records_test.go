package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
)

func TestAddBaselineStampsTime(t *testing.T) {
	s := loggedIn(t)

	b, err := s.AddBaseline(context.Background(), domain.Baseline{Mood: 7, Stress: 3, WellBeing: 6, Mindfulness: 5, SelfEsteem: 8})
	require.NoError(t, err)
	assert.False(t, b.Timestamp.IsZero())
	assert.Len(t, s.ActiveProfile().Baselines, 1)
}

func TestAddBaselineRejectsOutOfRange(t *testing.T) {
	s := loggedIn(t)
	_, err := s.AddBaseline(context.Background(), domain.Baseline{Mood: 11, Stress: 3, WellBeing: 6, Mindfulness: 5, SelfEsteem: 8})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, s.ActiveProfile().Baselines)
}

func TestBaselinesKeepInsertionOrder(t *testing.T) {
	s := loggedIn(t)
	ctx := context.Background()
	for mood := 1; mood <= 3; mood++ {
		_, err := s.AddBaseline(ctx, domain.Baseline{Mood: mood, Stress: 5, WellBeing: 5, Mindfulness: 5, SelfEsteem: 5})
		require.NoError(t, err)
	}
	bs := s.ActiveProfile().Baselines
	require.Len(t, bs, 3)
	for i, b := range bs {
		assert.Equal(t, i+1, b.Mood)
		if i > 0 {
			assert.True(t, bs[i-1].Timestamp.Before(b.Timestamp))
		}
	}
}

func TestAddQuestionnaireResult(t *testing.T) {
	s := loggedIn(t)
	score := 3.5
	q, err := s.AddQuestionnaireResult(context.Background(), domain.QuestionnaireData{
		QuestionnaireID: "burnout",
		Name:            "Burnout Self-Test Inventory",
		Responses: map[string]domain.Answer{
			"q1": domain.NumberAnswer(3),
			"q2": domain.NumberAnswer(4),
		},
		Score: &score,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.False(t, q.CompletedAt.IsZero())

	p := s.ActiveProfile()
	require.Len(t, p.Questionnaires, 1)
	assert.Equal(t, 3.5, *p.Questionnaires[0].Score)
	for _, sess := range p.Sessions {
		assert.Empty(t, sess.Questionnaires)
	}
}

func TestAddQuestionnaireResultRequiresResponses(t *testing.T) {
	s := loggedIn(t)
	_, err := s.AddQuestionnaireResult(context.Background(), domain.QuestionnaireData{QuestionnaireID: "meq"})
	assert.True(t, domain.IsValidation(err))
}
