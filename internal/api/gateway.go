package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	mimeJSON        = "application/json"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the current bearer credential, or "" when logged out.
type TokenSource interface {
	Get() string
}

// Gateway issues calls against the customer API, injecting the bearer
// credential and normalizing error bodies into a single RemoteError.
type Gateway struct {
	baseURL string
	doer    Doer
	tokens  TokenSource
	logger  *slog.Logger
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithDoer replaces the default HTTP client.
func WithDoer(d Doer) Option {
	return func(g *Gateway) { g.doer = d }
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New builds a gateway rooted at baseURL. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get issues a GET and decodes the response into out.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Call(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with an optional JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Call(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.Call(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Call(ctx, http.MethodDelete, path, nil, out)
}

// Call performs one round trip. On a 2xx response a JSON body is decoded into
// out and a text body is stored into out when it is a *string. Any other
// status yields exactly one *RemoteError.
func (g *Gateway) Call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}

	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", mimeJSON+", text/plain")
	if body != nil || method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Content-Type", mimeJSON)
	}
	if g.tokens != nil {
		if token := g.tokens.Get(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := g.doer.Do(req)
	if err != nil {
		g.logger.Debug("api call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", reqID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	g.logger.Debug("api call completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", reqID),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newRemoteError(resp)
	}
	return decodeSuccess(resp, out)
}

func decodeSuccess(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if out == nil {
		return nil
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
	}
	return nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), mimeJSON)
}
