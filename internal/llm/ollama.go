package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"devforge/internal/config"
)

const ollamaDefaultModel = "phi4:latest"

type ollamaClient struct {
	client *api.Client
	model  string
}

func newOllamaClient(cfg config.Config) (*ollamaClient, error) {
	host := cfg.OllamaHost
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: bad host %q: %w", host, err)
	}

	c := &ollamaClient{
		client: api.NewClient(u, httpClientFor(cfg)),
		model:  ollamaDefaultModel,
	}
	if strings.TrimSpace(cfg.Model) != "" {
		c.model = cfg.Model
	}
	return c, nil
}

func (c *ollamaClient) Infer(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var out strings.Builder
	err := c.client.Generate(ctx, req, func(gr api.GenerateResponse) error {
		out.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", mapOllamaError(err)
	}
	return out.String(), nil
}

func mapOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &BadStatusError{Code: statusErr.StatusCode, Body: truncateBody(statusErr.ErrorMessage)}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
}
