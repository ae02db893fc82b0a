package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nexus/internal/core"
)

func TestOllamaClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != core.OllamaTagsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"models":[{"name":"qwen2.5:7b","model":"qwen2.5:7b","size":4683087332},{"name":"llama3:8b"}]}`)
	}))
	defer srv.Close()

	models, err := NewOllamaClient(srv.URL+"/", time.Second).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0].Name != "qwen2.5:7b" || models[0].Size != 4683087332 {
		t.Errorf("unexpected models %+v", models)
	}
}

func TestOllamaClient_EmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	models, err := NewOllamaClient(srv.URL, time.Second).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if models == nil || len(models) != 0 {
		t.Errorf("期望空切片，实际 %v", models)
	}
}

func TestOllamaClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewOllamaClient(srv.URL, time.Second).ListModels(context.Background()); !core.IsCode(err, core.ErrCodeBackend) {
		t.Errorf("期望 BACKEND_ERROR，实际 %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()
	if _, err := NewOllamaClient(downURL, time.Second).ListModels(context.Background()); !core.IsCode(err, core.ErrCodeBackend) {
		t.Errorf("期望 BACKEND_ERROR，实际 %v", err)
	}
}

func TestNewOllamaClient_Defaults(t *testing.T) {
	c := NewOllamaClient("", 0)
	if c.BaseURL() != core.DefaultOllamaURL {
		t.Errorf("期望默认地址 %s，实际 %s", core.DefaultOllamaURL, c.BaseURL())
	}
}
