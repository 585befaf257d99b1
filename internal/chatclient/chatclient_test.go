package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codelore/internal/apperr"
)

func TestComplete_ReturnsAssistantMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(req.Messages))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "the answer"},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	client, err := New("test-key", server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	reply, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "you are a helpful assistant"},
		{Role: RoleUser, Content: "what is the answer?"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply.Content != "the answer" {
		t.Errorf("content = %q, want %q", reply.Content, "the answer")
	}
	if reply.Role != RoleAssistant {
		t.Errorf("role = %q, want assistant", reply.Role)
	}
}

func TestComplete_RequiresMessages(t *testing.T) {
	client, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = client.Complete(context.Background(), nil)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected apperr.ErrInvalidArgument, got %v", err)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "", "")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected apperr.ErrInvalidArgument, got %v", err)
	}
}
