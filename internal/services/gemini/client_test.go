package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pixly/internal/services"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": `{"category":"Errors","description":"login failed"}`}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "test", Model: "gemini-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Complete(context.Background(), "categorize", "Login failed")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(out, `"Errors"`) {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.HasSuffix(gotPath, "gemini-test:generateContent") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if client.Name() != "gemini" {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestCompleteServerErrorIsMarked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "permission denied", "status": "PERMISSION_DENIED"},
		})
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
