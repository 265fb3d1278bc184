// Package provider implements the optional AI provider client
// (OpenAI/Anthropic/xAI/Google). It is invoked only when online; the
// core must behave identically whether or not a Client is configured,
// so every failure mode here resolves to ErrOffline rather than
// propagating into the deterministic AST pipeline.
//
// Grounded on the teacher's internal/perception client family
// (client_openai.go, client_anthropic.go): the net/http + context-
// deadline client shape is kept (no ecosystem HTTP client library is
// used there either, so this package follows suit on the stdlib
// net/http client rather than introducing one).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// ErrOffline is returned whenever no provider is configured or the
// call fails for any reason; callers always fall back to the offline
// context bundle on this error.
var ErrOffline = errors.New("provider: offline")

// Config configures one provider client.
type Config struct {
	Provider       string // "openai" | "anthropic" | "google" | "xai" | ""
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// Client completes a single prompt against a configured provider.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewClient returns a Client for cfg, or (nil, ErrOffline) when no
// provider/API key is configured — the offline-safe default.
func NewClient(cfg Config) (Client, error) {
	if cfg.Provider == "" || cfg.APIKey == "" {
		return nil, ErrOffline
	}
	switch cfg.Provider {
	case "openai":
		return &httpClient{cfg: cfg, endpoint: "/chat/completions", http: newHTTPClient(cfg)}, nil
	case "anthropic":
		return &httpClient{cfg: cfg, endpoint: "/v1/messages", http: newHTTPClient(cfg)}, nil
	case "google", "xai":
		return &httpClient{cfg: cfg, endpoint: "", http: newHTTPClient(cfg)}, nil
	default:
		return nil, ErrOffline
	}
}

func newHTTPClient(cfg Config) *http.Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// httpClient is a minimal, provider-agnostic JSON completion caller.
// The wire format differences between providers are an external
// concern per the contract; this client sends a generic envelope and
// treats any non-2xx response or malformed body as ErrOffline.
type httpClient struct {
	cfg      Config
	endpoint string
	http     *http.Client
}

type completionRequest struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (c *httpClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		System:      systemPrompt,
		Prompt:      userPrompt,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", ErrOffline
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ErrOffline
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ErrOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", ErrOffline
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrOffline
	}
	var out completionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", ErrOffline
	}
	return out.Text, nil
}
