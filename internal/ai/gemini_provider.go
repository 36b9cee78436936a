package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google Gemini through the genai client.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client. Close must be called when done.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Complete generates a low-temperature answer to prompt.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(0)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return geminiText(resp)
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in gemini response")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", errors.New("no content in gemini response")
	}
	var parts []string
	for _, part := range c.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in gemini response")
	}
	return strings.Join(parts, ""), nil
}
