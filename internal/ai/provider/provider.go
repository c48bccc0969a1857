// Package provider is the hardened network client for outbound AI vendor
// calls. It knows nothing about inventory semantics: it sends one
// chat-style completion request, normalizes the answer to text, and maps
// every failure into a closed error taxonomy.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind identifies the vendor wire format.
type Kind string

const (
	KindOpenAI     Kind = "openai"
	KindAnthropic  Kind = "anthropic"
	KindGemini     Kind = "gemini"
	KindCompatible Kind = "openai-compatible"
)

const (
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com"
	geminiBaseURL    = "https://generativelanguage.googleapis.com"

	// anthropicVersion is the Anthropic Messages API version header value.
	anthropicVersion = "2023-06-01"
)

// Config is the per-request provider configuration, supplied by the caller
// from location-level AI settings and never persisted here.
type Config struct {
	Provider    Kind
	APIKey      string
	Model       string
	EndpointURL string
}

type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	http     *http.Client
	resolver hostResolver
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Client {
	return &Client{
		http:     &http.Client{},
		resolver: net.DefaultResolver,
		logger:   logger,
	}
}

// Completer is the part of the client that callers depend on; tests
// substitute a stub that returns canned model output.
type Completer interface {
	Complete(ctx context.Context, cfg Config, system, user string, opts Options) (string, error)
	TestConnection(ctx context.Context, cfg Config) error
}

// strategy holds one vendor's wire quirks: how to build the request and
// where the answer text hides in the response envelope.
type strategy struct {
	buildRequest func(cfg Config, system, user string, opts Options) (url string, headers map[string]string, body []byte, err error)
	extractText  func(data []byte) (string, error)
}

var strategies = map[Kind]strategy{
	KindOpenAI:     {buildRequest: buildOpenAIRequest, extractText: extractOpenAIText},
	KindCompatible: {buildRequest: buildOpenAIRequest, extractText: extractOpenAIText},
	KindAnthropic:  {buildRequest: buildAnthropicRequest, extractText: extractAnthropicText},
	KindGemini:     {buildRequest: buildGeminiRequest, extractText: extractGeminiText},
}

// Call sends one completion request and hands the model's JSON output to
// validate. Exactly one HTTP request is issued; there are no retries. Any
// parse or validation failure surfaces as INVALID_RESPONSE.
func Call[T any](ctx context.Context, c Completer, cfg Config, system, user string, opts Options, validate func(json.RawMessage) (T, error)) (T, error) {
	var zero T

	text, err := c.Complete(ctx, cfg, system, user, opts)
	if err != nil {
		return zero, err
	}

	raw := json.RawMessage(text)
	if !json.Valid(raw) {
		return zero, newError(CodeInvalidResponse, "model output is not valid JSON")
	}

	result, err := validate(raw)
	if err != nil {
		return zero, newError(CodeInvalidResponse, "model output failed validation: %v", err)
	}

	return result, nil
}

// TestConnection verifies the credentials and model with a minimal prompt.
func (c *Client) TestConnection(ctx context.Context, cfg Config) error {
	_, err := c.Complete(ctx, cfg,
		"You are a connectivity check.",
		"Reply with the single word OK.",
		Options{MaxTokens: 16, Timeout: 15 * time.Second})
	return err
}

// Complete sends one completion request and returns the model's text output
// with any Markdown code fences stripped.
func (c *Client) Complete(ctx context.Context, cfg Config, system, user string, opts Options) (string, error) {
	strat, ok := strategies[cfg.Provider]
	if !ok {
		return "", newError(CodeProviderError, "unsupported provider %q", cfg.Provider)
	}
	if cfg.Provider == KindCompatible && cfg.EndpointURL == "" {
		return "", newError(CodeNetworkError, "an endpoint URL is required for openai-compatible providers")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	reqURL, headers, body, err := strat.buildRequest(cfg, system, user, opts)
	if err != nil {
		return "", newError(CodeProviderError, "failed to build request: %v", err)
	}

	// Caller-supplied endpoints are untrusted: enforce the egress policy
	// before any connection is attempted.
	if cfg.EndpointURL != "" {
		if err := checkEndpoint(ctx, c.resolver, reqURL); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", newError(CodeNetworkError, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("provider call", "provider", cfg.Provider, "model", cfg.Model)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", newError(CodeNetworkError, "provider request failed: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close provider response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(CodeNetworkError, "failed to read provider response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Code: codeForStatus(resp.StatusCode), Message: vendorErrorMessage(data, resp.StatusCode)}
	}

	text, err := strat.extractText(data)
	if err != nil {
		return "", newError(CodeInvalidResponse, "no text in provider response: %v", err)
	}

	return stripFences(text), nil
}

// vendorErrorMessage pulls a human-readable message out of a vendor error
// body without leaking the raw payload.
func vendorErrorMessage(data []byte, status int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fmt.Sprintf("provider returned status %d", status)
}

// stripFences removes a Markdown code-fence wrapper (``` or ```json) that
// models often put around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
