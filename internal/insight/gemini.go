package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

const (
	DefaultBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultForecastModel = "gemini-3-flash-preview"
	DefaultInsightsModel = "gemini-3-pro-preview"
	DefaultChatModel     = "gemini-3-flash-preview"

	insightsThinkingBudget = 32768
	defaultMaxAttempts     = 3
	defaultInitialDelay    = time.Second
)

// GeminiClient calls the generateContent endpoint over HTTP.
type GeminiClient struct {
	apiKey        string
	baseURL       string
	forecastModel string
	insightsModel string
	chatModel     string
	maxAttempts   int
	initialDelay  time.Duration
	client        *http.Client
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithModels overrides the forecast and insights models. Empty values keep
// the defaults.
func WithModels(forecast, insights string) GeminiOption {
	return func(c *GeminiClient) {
		if forecast != "" {
			c.forecastModel = forecast
		}
		if insights != "" {
			c.insightsModel = insights
		}
	}
}

// WithChatModel overrides the chat model. An empty value keeps the
// default.
func WithChatModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.chatModel = model
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.client = hc
	}
}

// WithRetry sets the attempt count and the first backoff delay. Delays
// double after every failed attempt.
func WithRetry(attempts int, initialDelay time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.initialDelay = initialDelay
	}
}

// NewGeminiClient creates a client for apiKey.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:        apiKey,
		baseURL:       DefaultBaseURL,
		forecastModel: DefaultForecastModel,
		insightsModel: DefaultInsightsModel,
		chatModel:     DefaultChatModel,
		maxAttempts:   defaultMaxAttempts,
		initialDelay:  defaultInitialDelay,
		client:        &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any  `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

var forecastSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"anxietyProbability": map[string]any{"type": "NUMBER"},
		"wellBeingScore":     map[string]any{"type": "NUMBER"},
		"warning":            map[string]any{"type": "STRING", "nullable": true},
	},
	"required": []string{"anxietyProbability", "wellBeingScore"},
}

// Forecast asks the forecast model for a structured prediction. A reply
// that does not decode or falls outside the documented ranges is an
// EXTERNAL_SERVICE error.
func (c *GeminiClient) Forecast(ctx context.Context, history []domain.FlightSession, plan Plan) (Forecast, error) {
	const op = "forecast"

	prompt, err := forecastPrompt(history, plan)
	if err != nil {
		return Forecast{}, domain.ExternalService(op, err)
	}
	text, err := c.generate(ctx, c.forecastModel, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   forecastSchema,
		},
	})
	if err != nil {
		return Forecast{}, domain.ExternalService(op, err)
	}

	var f Forecast
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return Forecast{}, domain.ExternalService(op, fmt.Errorf("decode forecast: %w", err))
	}
	if err := f.Validate(); err != nil {
		return Forecast{}, domain.ExternalService(op, err)
	}
	return f, nil
}

// Insights asks the insights model for a short paragraph about history.
func (c *GeminiClient) Insights(ctx context.Context, history []domain.FlightSession) (string, error) {
	const op = "insights"

	prompt, err := insightsPrompt(history)
	if err != nil {
		return "", domain.ExternalService(op, err)
	}
	text, err := c.generate(ctx, c.insightsModel, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ThinkingConfig: &thinkingConfig{ThinkingBudget: insightsThinkingBudget},
		},
	})
	if err != nil {
		return "", domain.ExternalService(op, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ExternalService(op, fmt.Errorf("empty reply"))
	}
	return text, nil
}

// Chat sends the earlier turns and text to the chat model under the
// facilitator instruction. Turns with an unknown role are sent as user
// turns.
func (c *GeminiClient) Chat(ctx context.Context, history []Message, text string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		role := m.Role
		if role != RoleModel {
			role = RoleUser
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Text}}})
	}
	contents = append(contents, content{Role: RoleUser, Parts: []part{{Text: text}}})

	reply, err := c.generate(ctx, c.chatModel, generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: chatInstruction}}},
		Contents:          contents,
	})
	if err != nil {
		return "", domain.ExternalService("chat", err)
	}
	return strings.TrimSpace(reply), nil
}

func (c *GeminiClient) generate(ctx context.Context, model string, req generateRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("api key not set")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.initialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, retry, err := c.do(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("max attempts (%d) exceeded: %w", c.maxAttempts, lastErr)
}

// do performs one request. retry reports whether the failure is worth
// another attempt.
func (c *GeminiClient) do(ctx context.Context, url string, body []byte) (text string, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("http request: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		} else {
			err = fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, string(respBody))
		}
		return "", resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", false, fmt.Errorf("no candidates returned")
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), false, nil
}
