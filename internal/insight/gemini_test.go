package insight

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/testutil"
)

func history() []domain.FlightSession {
	return []domain.FlightSession{
		testutil.Session("s1", testutil.PhaseA(domain.SubstanceLSD, 100, time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)), "SOLO"),
	}
}

func replyWith(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(b)
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiForecast(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, replyWith(`{"anxietyProbability":0.35,"wellBeingScore":6,"warning":"Dose is high for a new place."}`))
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL))
	f, err := c.Forecast(context.Background(), history(), Plan{
		Substance: domain.SubstanceLSD, Dosage: 150, Physical: domain.PhysicalNew,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.35, f.AnxietyProbability)
	assert.Equal(t, 6.0, f.WellBeingScore)
	require.NotNil(t, f.Warning)
	assert.Equal(t, "Dose is high for a new place.", *f.Warning)

	assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", gotPath)
	assert.Equal(t, "k", gotKey)
	require.NotNil(t, gotBody.GenerationConfig)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMIMEType)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Substance: LSD")
	assert.Contains(t, prompt, "Dosage: 150")
	assert.Contains(t, prompt, "Environment: New Environment")
	assert.Contains(t, prompt, `"id":"s1"`)
}

func TestGeminiForecastRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"anxiety above one", `{"anxietyProbability":1.5,"wellBeingScore":6}`},
		{"well-being zero", `{"anxietyProbability":0.5,"wellBeingScore":0}`},
		{"not json", `I think it will go fine.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, replyWith(tt.reply))
			})
			c := NewGeminiClient("k", WithBaseURL(srv.URL))
			_, err := c.Forecast(context.Background(), history(), Plan{})
			assert.True(t, domain.IsExternalService(err), "got %v", err)
		})
	}
}

func TestGeminiInsights(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, replyWith("  Solo sessions show higher mindfulness.  "))
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL+"/"), WithModels("", "custom-model"))
	text, err := c.Insights(context.Background(), history())
	require.NoError(t, err)
	assert.Equal(t, "Solo sessions show higher mindfulness.", text)
	assert.Equal(t, "/v1beta/models/custom-model:generateContent", gotPath)
	require.NotNil(t, gotBody.GenerationConfig.ThinkingConfig)
	assert.Equal(t, 32768, gotBody.GenerationConfig.ThinkingConfig.ThinkingBudget)
}

func TestGeminiChat(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		io.WriteString(w, replyWith(" Keep a sitter nearby. \n"))
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL))
	reply, err := c.Chat(context.Background(), []Message{
		{Role: RoleModel, Text: ChatGreeting},
		{Role: RoleUser, Text: "First time with mushrooms."},
		{Role: RoleModel, Text: "Pick a familiar place."},
		{Role: "system", Text: "ignored role"},
	}, "Should I be alone?")
	require.NoError(t, err)
	assert.Equal(t, "Keep a sitter nearby.", reply)
	assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", gotPath)

	require.NotNil(t, gotBody.SystemInstruction)
	assert.Contains(t, gotBody.SystemInstruction.Parts[0].Text, "You are FacilitatorAI")
	assert.Contains(t, gotBody.SystemInstruction.Parts[0].Text, "Set and Setting")
	assert.Nil(t, gotBody.GenerationConfig)

	var roles, texts []string
	for _, turn := range gotBody.Contents {
		roles = append(roles, turn.Role)
		texts = append(texts, turn.Parts[0].Text)
	}
	assert.Equal(t, []string{"model", "user", "model", "user", "user"}, roles)
	assert.Equal(t, "Should I be alone?", texts[len(texts)-1])
}

func TestGeminiChatModelAndEmptyReply(t *testing.T) {
	var gotPath string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, replyWith(""))
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL), WithChatModel("chat-model"))
	reply, err := c.Chat(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, "/v1beta/models/chat-model:generateContent", gotPath)
}

func TestGeminiChatFailureIsExternalService(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"bad request"}}`)
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL))
	_, err := c.Chat(context.Background(), nil, "hello")
	assert.True(t, domain.IsExternalService(err), "got %v", err)
}

func TestGeminiRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":{"code":503,"message":"overloaded"}}`)
			return
		}
		io.WriteString(w, replyWith("ok"))
	})

	c := NewGeminiClient("k", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	text, err := c.Insights(context.Background(), history())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"API key not valid"}}`)
	})

	c := NewGeminiClient("bad", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.Insights(context.Background(), history())
	require.Error(t, err)
	assert.True(t, domain.IsExternalService(err))
	assert.True(t, strings.Contains(err.Error(), "API key not valid"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewServiceWithoutKeyIsDisabled(t *testing.T) {
	svc := NewService("")
	_, ok := svc.(Disabled)
	assert.True(t, ok)

	f, err := svc.Forecast(context.Background(), nil, Plan{})
	require.NoError(t, err)
	assert.Equal(t, Forecast{AnxietyProbability: 0.1, WellBeingScore: 8}, f)

	reply, err := svc.Chat(context.Background(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, ChatOffline, reply)

	_, ok = NewService("k").(*GeminiClient)
	assert.True(t, ok)
}
