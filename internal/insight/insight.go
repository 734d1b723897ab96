// Package insight talks to the language model that forecasts a planned
// session and summarizes patterns in a profile's history.
//
// Service is the raw, fallible backend. Advisor wraps a Service with the
// request timeout and the fixed fallback values, so callers in the
// workflows never see an error from this package.
package insight

import (
	"context"

	"github.com/roach88/blackbox/internal/domain"
)

// Plan is the part of an intake the forecast looks at.
type Plan struct {
	Substance domain.Substance           `json:"substance"`
	Dosage    float64                    `json:"dosage"`
	Physical  domain.PhysicalEnvironment `json:"physical"`
}

// PlanFrom extracts the forecast inputs from an intake.
func PlanFrom(p domain.PhaseA) Plan {
	return Plan{Substance: p.Substance, Dosage: p.Dosage, Physical: p.Physical}
}

// Forecast is the predicted outcome of a planned session.
type Forecast struct {
	// AnxietyProbability is in [0, 1].
	AnxietyProbability float64 `json:"anxietyProbability"`
	// WellBeingScore is in [1, 10].
	WellBeingScore float64 `json:"wellBeingScore"`
	Warning        *string `json:"warning"`
}

// Validate checks the documented ranges.
func (f Forecast) Validate() error {
	if f.AnxietyProbability < 0 || f.AnxietyProbability > 1 {
		return domain.Validation("validate forecast", "anxietyProbability", "%v is outside 0-1", f.AnxietyProbability)
	}
	if f.WellBeingScore < 1 || f.WellBeingScore > 10 {
		return domain.Validation("validate forecast", "wellBeingScore", "%v is outside 1-10", f.WellBeingScore)
	}
	return nil
}

// Chat roles, as the model expects them.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of a harm-reduction chat.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Service is an insight backend.
type Service interface {
	Forecast(ctx context.Context, history []domain.FlightSession, plan Plan) (Forecast, error)
	Insights(ctx context.Context, history []domain.FlightSession) (string, error)
	// Chat answers text given the earlier turns. An empty reply is not an
	// error.
	Chat(ctx context.Context, history []Message, text string) (string, error)
}

// Fixed texts shown in place of model output.
const (
	ForecastUnavailable = "Prediction engine temporarily unavailable."
	InsightsUnavailable = "Pattern analysis engine is currently recalibrating. Please check back later."
	InsufficientData    = "Insufficient data for meaningful insights. Complete more flights to unlock pattern recognition."

	ChatGreeting    = "FacilitatorAI online. How can I support your safety or integration today?"
	ChatCleared     = "Neural pathways cleared. How can I support your journey today?"
	ChatEmptyReply  = "I'm having trouble retrieving data from the safety matrix. Please rephrase your query."
	ChatUnavailable = "Error: Could not reach the FacilitatorAI safety core. Verify your system connection."
	ChatOffline     = "FacilitatorAI is offline. Set BLACKBOX_GEMINI_API_KEY to enable the chat."
)

// FallbackForecast is returned when the backend fails.
func FallbackForecast() Forecast {
	w := ForecastUnavailable
	return Forecast{AnxietyProbability: 0.2, WellBeingScore: 7, Warning: &w}
}

// Disabled is the Service used when no API key is configured.
type Disabled struct{}

// Forecast returns a fixed optimistic estimate.
func (Disabled) Forecast(context.Context, []domain.FlightSession, Plan) (Forecast, error) {
	return Forecast{AnxietyProbability: 0.1, WellBeingScore: 8}, nil
}

// Insights returns InsufficientData.
func (Disabled) Insights(context.Context, []domain.FlightSession) (string, error) {
	return InsufficientData, nil
}

// Chat returns ChatOffline.
func (Disabled) Chat(context.Context, []Message, string) (string, error) {
	return ChatOffline, nil
}

// NewService returns a Gemini client for apiKey, or Disabled when the key
// is empty.
func NewService(apiKey string, opts ...GeminiOption) Service {
	if apiKey == "" {
		return Disabled{}
	}
	return NewGeminiClient(apiKey, opts...)
}
