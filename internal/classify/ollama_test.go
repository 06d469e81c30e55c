package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llava-llama3" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "✨ Solução Ideal para você"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llava-llama3", 5*time.Second)
	got, err := c.Generate(context.Background(), "descreva o vídeo")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "✨ Solução Ideal para você" {
		t.Fatalf("Generate = %q", got)
	}
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "missing", 5*time.Second)
	if _, err := c.Generate(context.Background(), "oi"); err == nil {
		t.Fatal("expected error on 404")
	} else if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestOllamaGenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": ""})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llava-llama3", 5*time.Second)
	if _, err := c.Generate(context.Background(), "oi"); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestOllamaHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llava-llama3", 5*time.Second)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}

	srv.Close()
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error once server is down")
	}
}
