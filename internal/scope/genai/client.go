// Package genai adapts the OpenAI-compatible text-generation gateway. The
// backend is optional: a nil Client means generation is disabled.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"renovation-scope/internal/common/config"
	commonhttp "renovation-scope/internal/common/http"
	"renovation-scope/internal/common/logger"
)

const completionsPath = "/v1/chat/completions"

var (
	ErrDisabled     = errors.New("generation disabled")
	ErrRateLimited  = errors.New("generation rate limit exceeded")
	ErrTimeout      = errors.New("generation timed out")
	ErrEmptyContent = errors.New("generation returned no content")
)

// Request is one structured generation call.
type Request struct {
	Component string
	CaseID    string
	System    string
	User      string
}

// Client produces the raw structured payload for a request.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    *float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPClient calls the chat completions endpoint once per request. It never
// retries: a failed attempt goes straight to the caller's fallback.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	http        *commonhttp.Client
	limiter     *rate.Limiter
	logger      logger.Logger
}

// New returns the configured client, or nil when no credential is set.
func New(cfg config.GenAIConfig, log logger.Logger) Client {
	if !cfg.Enabled() {
		return nil
	}
	return NewHTTPClient(cfg, commonhttp.NewClient(0), log)
}

// NewHTTPClient builds a client on an explicit transport.
func NewHTTPClient(cfg config.GenAIConfig, httpClient *commonhttp.Client, log logger.Logger) *HTTPClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     config.GetDuration(cfg.Timeout),
		http:        httpClient,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger.ForComponent(log, "genai"),
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	if !c.limiter.Allow() {
		return "", ErrRateLimited
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if c.temperature > 0 {
		t := c.temperature
		body.Temperature = &t
	}

	c.logger.Debug("requesting generation", map[string]interface{}{
		"caseId":       req.CaseID,
		"scope":        req.Component,
		"promptLength": len(req.System) + len(req.User),
	})

	start := time.Now()
	var resp chatResponse
	err := c.http.PostJSON(callCtx, c.baseURL+completionsPath, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, body, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyContent
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"caseId":     req.CaseID,
		"scope":      req.Component,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp.Choices[0].Message.Content, nil
}
