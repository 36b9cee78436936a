package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/amishk599/careerscout/internal/model"
)

// LLMProvider sends a prompt to an LLM and returns the raw text response.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted in configuration.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// statusError turns a non-200 provider response into an HTTPError so the
// retry layer can classify it.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("llm returned: %s", strings.TrimSpace(string(body))),
	}
}
