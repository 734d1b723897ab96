package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
)

// blocking never answers until its context is done.
type blocking struct{}

func (blocking) Forecast(ctx context.Context, _ []domain.FlightSession, _ Plan) (Forecast, error) {
	<-ctx.Done()
	return Forecast{}, ctx.Err()
}

func (blocking) Insights(ctx context.Context, _ []domain.FlightSession) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blocking) Chat(ctx context.Context, _ []Message, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAdvisorPassesThrough(t *testing.T) {
	warning := "Careful."
	fake := &Fake{
		ForecastResult: Forecast{AnxietyProbability: 0.4, WellBeingScore: 6, Warning: &warning},
		InsightsText:   "Pattern found.",
	}
	a := NewAdvisor(fake)

	f := a.Forecast(context.Background(), history(), Plan{Dosage: 100})
	assert.Equal(t, 0.4, f.AnxietyProbability)
	assert.Equal(t, "Careful.", *f.Warning)
	assert.Equal(t, 100.0, fake.LastPlan.Dosage)

	assert.Equal(t, "Pattern found.", a.Insights(context.Background(), history()))
}

// Scenario: a failing backend yields the fixed fallbacks.
func TestAdvisorFallbacks(t *testing.T) {
	a := NewAdvisor(&Fake{Err: errors.New("boom")})

	f := a.Forecast(context.Background(), history(), Plan{})
	assert.Equal(t, 0.2, f.AnxietyProbability)
	assert.Equal(t, 7.0, f.WellBeingScore)
	require.NotNil(t, f.Warning)
	assert.Equal(t, "Prediction engine temporarily unavailable.", *f.Warning)

	assert.Equal(t, "Pattern analysis engine is currently recalibrating. Please check back later.",
		a.Insights(context.Background(), history()))
}

func TestAdvisorRejectsOutOfRangeForecast(t *testing.T) {
	a := NewAdvisor(&Fake{ForecastResult: Forecast{AnxietyProbability: 2, WellBeingScore: 5}})
	assert.Equal(t, FallbackForecast(), a.Forecast(context.Background(), history(), Plan{}))
}

func TestAdvisorEmptyHistorySkipsBackend(t *testing.T) {
	fake := &Fake{InsightsText: "never"}
	a := NewAdvisor(fake)

	assert.Equal(t, InsufficientData, a.Insights(context.Background(), nil))
	_, insights := fake.Calls()
	assert.Zero(t, insights)
}

func TestAdvisorTimeout(t *testing.T) {
	a := NewAdvisor(blocking{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.Equal(t, FallbackForecast(), a.Forecast(context.Background(), history(), Plan{}))
	assert.Equal(t, InsightsUnavailable, a.Insights(context.Background(), history()))
	assert.Equal(t, ChatUnavailable, a.Chat(context.Background(), nil, "hello"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAdvisorDisabled(t *testing.T) {
	a := NewAdvisor(nil)
	assert.Equal(t, Forecast{AnxietyProbability: 0.1, WellBeingScore: 8}, a.Forecast(context.Background(), history(), Plan{}))
	assert.Equal(t, InsufficientData, a.Insights(context.Background(), history()))
}

func TestAdvisorChat(t *testing.T) {
	greeting := []Message{{Role: RoleModel, Text: ChatGreeting}}

	tests := []struct {
		name string
		fake *Fake
		want string
	}{
		{"reply", &Fake{ChatText: "Start low and go slow."}, "Start low and go slow."},
		{"empty_reply", &Fake{ChatText: "  "}, "I'm having trouble retrieving data from the safety matrix. Please rephrase your query."},
		{"failure", &Fake{Err: errors.New("boom")}, "Error: Could not reach the FacilitatorAI safety core. Verify your system connection."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdvisor(tt.fake)
			assert.Equal(t, tt.want, a.Chat(context.Background(), greeting, "Is it safe alone?"))
			assert.Equal(t, 1, tt.fake.ChatCalls)
			assert.Equal(t, []Message{
				{Role: RoleModel, Text: ChatGreeting},
				{Role: RoleUser, Text: "Is it safe alone?"},
			}, tt.fake.LastChat)
		})
	}
}

func TestAdvisorChatDisabled(t *testing.T) {
	assert.Equal(t, ChatOffline, NewAdvisor(nil).Chat(context.Background(), nil, "hi"))
}
