package embedclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"codelore/internal/apperr"
)

func TestIsManagedEndpoint(t *testing.T) {
	cases := map[string]bool{
		"https://my-deployment.openai.azure.com": true,
		"https://api.openai.com":                 false,
		"":                                       false,
	}
	for url, want := range cases {
		if got := IsManagedEndpoint(url); got != want {
			t.Errorf("IsManagedEndpoint(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestEmbed_RetriesTransientFailureThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.1, 0.2}, "index": 0},
			},
			"model": "text-embedding-3-small",
			"object": "list",
		})
	}))
	defer server.Close()

	client, err := New("test-key", server.URL, "", 0, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	vectors, err := client.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
	if atomic.LoadInt32(&attempts) < 2 {
		t.Errorf("expected at least 2 attempts (one retry), got %d", attempts)
	}
}

func TestEmbed_PermanentFailureIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer server.Close()

	client, err := New("test-key", server.URL, "", 0, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected exactly 1 attempt for a permanent failure, got %d", attempts)
	}
}

func TestEmbed_EmptyInputReturnsNoVectors(t *testing.T) {
	client, err := New("test-key", "", "", 0, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	vectors, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil vectors for empty input, got %v", vectors)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "", "", 0, 0)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected apperr.ErrInvalidArgument, got %v", err)
	}
}
