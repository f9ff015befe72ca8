// Package client issues the authenticated GET requests the rest of rco is
// built on. It never reads the environment: the session cookie arrives
// through Options.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeovahfialho/rco-cli/internal/domain"
	"github.com/jeovahfialho/rco-cli/pkg/logger"
	"github.com/jeovahfialho/rco-cli/pkg/metrics"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "rco-cli/1.0"
	maxBodySize      = 4 << 20
)

type Options struct {
	BaseURL   string
	Cookie    string
	Timeout   time.Duration
	UserAgent string
	// HTTP overrides the underlying client (tests, custom transports).
	HTTP *http.Client
}

type Client struct {
	baseURL    string
	cookie     string
	userAgent  string
	httpClient *http.Client
}

func New(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookie:     strings.TrimSpace(opts.Cookie),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Fetch performs one GET against path and returns the body unchanged once
// it is known to be valid JSON. Multi-valued params are sent as repeated
// query parameters.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.cookie == "" {
		return nil, &domain.AuthError{Message: "COOKIE_JAR não está definido"}
	}

	target, err := c.buildURL(path, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("User-Agent", c.userAgent)

	resource := resourceName(path)
	timer := metrics.NewTimer()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(resource, "network_error", timer.Elapsed())
		return nil, &domain.NetworkError{Op: "GET " + path, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		metrics.RecordRequest(resource, "network_error", timer.Elapsed())
		return nil, &domain.NetworkError{Op: "leitura da resposta", Cause: err}
	}

	logger.Debug("resposta recebida",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", timer.Elapsed()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordRequest(resource, "api_error", timer.Elapsed())
		apiErr := &domain.APIError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &domain.AuthError{Message: "sessão rejeitada pelo servidor", Cause: apiErr}
		}
		return nil, apiErr
	}

	if len(body) > maxBodySize {
		metrics.RecordRequest(resource, "decode_error", timer.Elapsed())
		return nil, &domain.DecodeError{What: path, Cause: fmt.Errorf("corpo maior que %d bytes", maxBodySize)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		metrics.RecordRequest(resource, "decode_error", timer.Elapsed())
		return nil, &domain.DecodeError{What: path, Cause: errors.New("corpo não é JSON válido")}
	}

	metrics.RecordRequest(resource, "ok", timer.Elapsed())
	return json.RawMessage(trimmed), nil
}

func (c *Client) buildURL(path string, params url.Values) (string, error) {
	if c.baseURL == "" {
		return "", &domain.ValidationError{Field: "RCO_BASE_URL", Message: "URL base vazia"}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", &domain.ValidationError{Field: "RCO_BASE_URL", Message: err.Error()}
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

// providerMessage extracts the provider's error text from an error body:
// {"error": "..."}, {"message": "..."} or {"error": {"message": "..."}}.
func providerMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

// resourceName labels metrics by the first meaningful path segment:
// "/api/assets/VALE3/history" is "assets", "/opportunities/__data.json" is
// "opportunities".
func resourceName(path string) string {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" || segment == "api" {
			continue
		}
		return segment
	}
	return "root"
}
