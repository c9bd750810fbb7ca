// Package client is a Go client for the recipe generation API. It shapes
// generation requests, attaches the caller's session token and maps error
// bodies back onto the shared error types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
	"github.com/pageza/fusion-kitchen/backend/internal/servings"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// Session is an authenticated caller
type Session struct {
	Token  string
	UserID uuid.UUID
}

// Error is a non-success reply other than 401. The server reports upstream,
// malformed-response and persistence failures alike as 500, so Message is
// the only thing that tells them apart.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the API at baseURL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.OrNop(log) }
}

// New creates a client. There is no request timeout by default; generation
// can take as long as the model does, so bound calls with ctx.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and returns its session
func (c *Client) Register(ctx context.Context, email, password, username string) (*Session, error) {
	var resp types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", "", types.RegisterRequest{
		Email:    email,
		Password: password,
		Username: username,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, UserID: resp.UserID}, nil
}

// Login exchanges credentials for a session
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", types.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, UserID: resp.UserID}, nil
}

// Generate submits one generation request. Without a session it fails with
// AuthenticationRequiredError before any network call. Either the whole
// batch is returned or an error, never a partial list.
func (c *Client) Generate(ctx context.Context, session *Session, req types.GenerationRequest) ([]types.Recipe, error) {
	if session == nil || session.Token == "" {
		return nil, &apperrors.AuthenticationRequiredError{Reason: "no active session"}
	}
	if req.Cuisines == nil {
		req.Cuisines = []string{}
	}
	if req.DietaryPreferences == nil {
		req.DietaryPreferences = []string{}
	}

	var recipes []types.Recipe
	if err := c.do(ctx, http.MethodPost, "/api/v1/recipes/generate", session.Token, req, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// AdjustServings scales recipe locally without contacting the server
func (c *Client) AdjustServings(recipe types.Recipe, target int) (types.Recipe, error) {
	return servings.Adjust(recipe, target)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.UpstreamError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.UpstreamError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}
	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body types.ErrorResponse
	message := http.StatusText(status)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	if status == http.StatusUnauthorized {
		return &apperrors.AuthenticationRequiredError{Reason: strings.TrimPrefix(message, "authentication required: ")}
	}
	return &Error{StatusCode: status, Message: message}
}
