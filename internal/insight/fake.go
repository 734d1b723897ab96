package insight

import (
	"context"
	"sync"

	"github.com/roach88/blackbox/internal/domain"
)

// Fake is a scripted Service for tests and scenario runs.
//
// Thread-safety: Fake is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	ForecastResult Forecast
	InsightsText   string
	ChatText       string
	// Err, when set, is returned by every method.
	Err error

	ForecastCalls int
	InsightsCalls int
	ChatCalls     int
	LastPlan      Plan
	LastHistory   int
	// LastChat holds the history and text of the latest Chat call.
	LastChat []Message
}

// Forecast returns ForecastResult or Err.
func (f *Fake) Forecast(_ context.Context, history []domain.FlightSession, plan Plan) (Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ForecastCalls++
	f.LastPlan = plan
	f.LastHistory = len(history)
	if f.Err != nil {
		return Forecast{}, f.Err
	}
	return f.ForecastResult, nil
}

// Insights returns InsightsText or Err.
func (f *Fake) Insights(_ context.Context, history []domain.FlightSession) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsightsCalls++
	f.LastHistory = len(history)
	if f.Err != nil {
		return "", f.Err
	}
	return f.InsightsText, nil
}

// Chat returns ChatText or Err.
func (f *Fake) Chat(_ context.Context, history []Message, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChatCalls++
	f.LastChat = append(append([]Message(nil), history...), Message{Role: RoleUser, Text: text})
	if f.Err != nil {
		return "", f.Err
	}
	return f.ChatText, nil
}

// Calls returns the forecast and insights call counts.
func (f *Fake) Calls() (forecast, insights int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ForecastCalls, f.InsightsCalls
}
