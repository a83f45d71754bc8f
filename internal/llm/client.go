package llm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"devforge/internal/config"
)

// Client sends a prompt to the generative backend and returns the model's
// raw textual output. Unwrapping the backend's transport envelope is the
// provider's job; making mission sense of the text is not.
type Client interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// New builds the provider selected by cfg.Backend. The configuration is
// captured at construction; there is no mutable global state.
func New(cfg config.Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "ollama":
		return newOllamaClient(cfg)
	case "gemini":
		return newGeminiClient(cfg)
	case "proxy":
		return newProxyClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported inference backend: %s", cfg.Backend)
	}
}

// httpClientFor builds an HTTP client with the two distinct deadlines the
// backends are bounded by: dialing and the whole call.
func httpClientFor(cfg config.Config) *http.Client {
	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
		},
	}
}
