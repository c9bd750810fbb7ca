package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// RecipeModel produces raw recipes for a prompt
type RecipeModel interface {
	GenerateRecipes(ctx context.Context, prompt string) ([]types.RawRecipe, error)
}

// LLMService handles interactions with the DeepSeek API
type LLMService struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	maxRetries  int

	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	backoff func(attempt int) time.Duration
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg config.LLMConfig, log *zap.Logger, m *metrics.Metrics) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
	}
	return &LLMService{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:         logger.OrNop(log).Named("llm"),
		metrics:     m,
		backoff:     jitteredBackoff,
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the DeepSeek API
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

// GenerateRecipes sends prompt to the model and decodes the recipes it returns.
// Only transport failures, 429 and 5xx responses are retried, and only when
// retries are configured.
func (s *LLMService) GenerateRecipes(ctx context.Context, prompt string) ([]types.RawRecipe, error) {
	reqBody := Request{
		Model:          s.model,
		Messages:       []Message{{Role: "user", Content: prompt}},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    s.temperature,
		MaxTokens:      s.maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		recipes, err := s.attempt(ctx, jsonData)
		if err == nil {
			return recipes, nil
		}

		var upstreamErr *apperrors.UpstreamError
		if !errors.As(err, &upstreamErr) || !upstreamErr.Retryable() || attempt >= s.maxRetries || ctx.Err() != nil {
			return nil, err
		}

		wait := s.backoff(attempt)
		s.log.Warn("retrying chat completion",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, &apperrors.UpstreamError{Cause: ctx.Err()}
		case <-time.After(wait):
		}
	}
}

func (s *LLMService) attempt(ctx context.Context, body []byte) ([]types.RawRecipe, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.observe("error", start)
		return nil, &apperrors.UpstreamError{Cause: err}
	}
	defer resp.Body.Close()
	s.observe(strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.log.Error("chat completion rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.UpstreamError{Cause: err}
	}
	s.log.Debug("chat completion received", zap.Int("bytes", len(raw)))

	return decodeCompletion(raw)
}

func (s *LLMService) observe(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.UpstreamDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// decodeCompletion validates the completion envelope and the recipes payload
// carried in the first choice.
func decodeCompletion(raw []byte) ([]types.RawRecipe, error) {
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &apperrors.MalformedResponseError{Reason: "completion is not valid JSON", Cause: err}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, &apperrors.MalformedResponseError{Reason: "missing choices[0].message.content"}
	}

	var payload struct {
		Recipes json.RawMessage `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &payload); err != nil {
		return nil, &apperrors.MalformedResponseError{Reason: "content is not a JSON object", Cause: err}
	}

	trimmed := bytes.TrimSpace(payload.Recipes)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &apperrors.MalformedResponseError{Reason: "recipes is not an array"}
	}

	var recipes []types.RawRecipe
	if err := json.Unmarshal(trimmed, &recipes); err != nil {
		return nil, &apperrors.MalformedResponseError{Reason: "recipes contains an invalid recipe", Cause: err}
	}
	if err := checkRecipes(recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// checkRecipes rejects batches of the wrong size and recipes missing required
// fields. Content of present fields is not inspected.
func checkRecipes(recipes []types.RawRecipe) error {
	switch {
	case len(recipes) == 0:
		return &apperrors.MalformedResponseError{Reason: "recipes is empty"}
	case len(recipes) != RecipesPerGeneration:
		return &apperrors.MalformedResponseError{
			Reason: fmt.Sprintf("expected %d recipes, got %d", RecipesPerGeneration, len(recipes)),
		}
	}
	for i, r := range recipes {
		switch {
		case r.Ingredients == nil:
			return &apperrors.MalformedResponseError{Reason: fmt.Sprintf("recipes[%d].ingredients is missing", i)}
		case r.Instructions == nil:
			return &apperrors.MalformedResponseError{Reason: fmt.Sprintf("recipes[%d].instructions is missing", i)}
		case r.Servings < 1:
			return &apperrors.MalformedResponseError{Reason: fmt.Sprintf("recipes[%d].servings must be at least 1", i)}
		}
	}
	return nil
}

func jitteredBackoff(attempt int) time.Duration {
	base := 500 * time.Millisecond << attempt
	return base + time.Duration(rand.Int63n(int64(base)))
}
