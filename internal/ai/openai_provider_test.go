package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/careerscout/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if statusCode == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "5")
		}
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func okResponse(content string) chatResponse {
	return chatResponse{Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}}}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, okResponse("https://acme.com/careers"))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	got, err := provider.Complete(context.Background(), "pick one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://acme.com/careers" {
		t.Errorf("got %q", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), "pick one")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), "pick one")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.RetryAfter != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", httpErr.RetryAfter)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), "pick one")
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_SendsAuthAndDeterministicRequest(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(okResponse("none"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "gpt-4o-mini", srv.Client())
	_, _ = provider.Complete(context.Background(), "hello")

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
	if gotReq.Model != "gpt-4o-mini" || gotReq.Temperature != 0 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}
