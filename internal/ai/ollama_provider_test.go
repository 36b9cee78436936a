package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/careerscout/internal/model"
)

func TestOllamaComplete(t *testing.T) {
	var gotPath string
	var gotReq ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Message: chatMessage{Role: "assistant", Content: "https://acme.com/jobs"}})
	}))
	defer srv.Close()

	got, err := NewOllamaProvider(srv.URL, "gpt-oss:120b-cloud", srv.Client()).Complete(context.Background(), "links")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://acme.com/jobs" {
		t.Errorf("got %q", got)
	}
	if gotPath != "/api/chat" {
		t.Errorf("path = %q, want /api/chat", gotPath)
	}
	if gotReq.Stream {
		t.Error("stream must be false")
	}
	if gotReq.Model != "gpt-oss:120b-cloud" || len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestOllamaComplete_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'x' not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "x", srv.Client()).Complete(context.Background(), "links")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
}

func TestOllamaComplete_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer srv.Close()

	if _, err := NewOllamaProvider(srv.URL, "x", srv.Client()).Complete(context.Background(), "links"); err == nil {
		t.Fatal("expected error")
	}
}
