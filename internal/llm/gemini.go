package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"devforge/internal/config"
)

const geminiDefaultModel = "gemini-2.0-flash"

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(cfg config.Config) (*geminiClient, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("gemini: API key is not set")
	}
	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.GeminiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClientFor(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}

	g := &geminiClient{client: c, model: geminiDefaultModel}
	if strings.TrimSpace(cfg.Model) != "" {
		g.model = cfg.Model
	}
	return g, nil
}

func (c *geminiClient) Infer(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		// The SDK does not expose connect vs read failure; one kind suffices.
		return "", fmt.Errorf("%w: gemini: %v", ErrBackendUnreachable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrBadPayload)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
