package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"devforge/internal/config"
)

// proxyClient talks to a generic remote AI endpoint: JSON POST, X-API-Key
// auth, and a flat envelope carrying the model text in either a "response"
// or a "text" field depending on the deployment.
type proxyClient struct {
	http   *http.Client
	url    string
	apiKey string
	model  string
}

type proxyRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type proxyEnvelope struct {
	Response *string `json:"response"`
	Text     *string `json:"text"`
}

func newProxyClient(cfg config.Config) (*proxyClient, error) {
	if strings.TrimSpace(cfg.ProxyURL) == "" {
		return nil, fmt.Errorf("proxy: endpoint URL is not set")
	}
	return &proxyClient{
		http:   httpClientFor(cfg),
		url:    cfg.ProxyURL,
		apiKey: cfg.ProxyAPIKey,
		model:  cfg.Model,
	}, nil
}

func (c *proxyClient) Infer(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(proxyRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("proxy: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("proxy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrBackendUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &BadStatusError{Code: resp.StatusCode, Body: truncateBody(string(raw))}
	}

	var env proxyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	switch {
	case env.Response != nil:
		return *env.Response, nil
	case env.Text != nil:
		return *env.Text, nil
	default:
		return "", fmt.Errorf("%w: envelope has neither response nor text field", ErrBadPayload)
	}
}
