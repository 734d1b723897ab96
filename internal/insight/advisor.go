package insight

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// DefaultTimeout bounds every backend call made through an Advisor.
const DefaultTimeout = 15 * time.Second

// Advisor applies the timeout and fallbacks around a Service. Its methods
// never fail.
type Advisor struct {
	svc     Service
	timeout time.Duration
	logger  *slog.Logger
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) AdvisorOption {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger fallbacks are reported to.
func WithLogger(l *slog.Logger) AdvisorOption {
	return func(a *Advisor) {
		a.logger = l
	}
}

// NewAdvisor wraps svc. A nil svc behaves as Disabled.
func NewAdvisor(svc Service, opts ...AdvisorOption) *Advisor {
	if svc == nil {
		svc = Disabled{}
	}
	a := &Advisor{
		svc:     svc,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Forecast returns the backend's prediction, or FallbackForecast when it
// fails or times out.
func (a *Advisor) Forecast(ctx context.Context, history []domain.FlightSession, plan Plan) Forecast {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	f, err := a.svc.Forecast(ctx, history, plan)
	if err == nil {
		err = f.Validate()
	}
	if err != nil {
		a.logger.Warn("forecast unavailable, using fallback", "error", err)
		return FallbackForecast()
	}
	return f
}

// Insights returns the backend's analysis of history. An empty history
// yields InsufficientData without calling the backend; a failure yields
// InsightsUnavailable.
func (a *Advisor) Insights(ctx context.Context, history []domain.FlightSession) string {
	if len(history) == 0 {
		return InsufficientData
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.svc.Insights(ctx, history)
	if err != nil {
		a.logger.Warn("insights unavailable, using fallback", "error", err)
		return InsightsUnavailable
	}
	return text
}

// Chat returns the backend's reply to text. An empty reply yields
// ChatEmptyReply and a failure yields ChatUnavailable.
func (a *Advisor) Chat(ctx context.Context, history []Message, text string) string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.svc.Chat(ctx, history, text)
	if err != nil {
		a.logger.Warn("chat unavailable", "error", err)
		return ChatUnavailable
	}
	if strings.TrimSpace(reply) == "" {
		return ChatEmptyReply
	}
	return reply
}
