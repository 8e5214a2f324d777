package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/chakra/internal/app"
	"github.com/ayusman/chakra/internal/config"
	"github.com/ayusman/chakra/internal/store"
)

// newTestApp builds an App over a temporary store. The tick loop is not
// started; tests drive the engine directly.
func newTestApp(t *testing.T) *app.App {
	t.Helper()

	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := config.New()
	cfg.DataDir = dir
	cfg.PluginDir = dir

	a, err := app.New(app.Options{Config: cfg, Store: s})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return a
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})

	t.Run("reports the engine session with an app", func(t *testing.T) {
		a := newTestApp(t)
		rec := httptest.NewRecorder()
		New(Config{App: a}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["session"] != a.Engine().SessionID() {
			t.Errorf("session = %v, want %s", response["session"], a.Engine().SessionID())
		}
		if response["enabled"] != true {
			t.Errorf("enabled = %v, want true", response["enabled"])
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_RoutesNeedApp(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/hands", "/api/interactables", "/api/profiles", "/api/events", "/metrics"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_Engine(t *testing.T) {
	a := newTestApp(t)
	s := New(Config{App: a})

	tests := []struct {
		name    string
		method  string
		body    string
		status  int
		enabled bool
	}{
		{"get", http.MethodGet, "", http.StatusOK, true},
		{"disable", http.MethodPut, `{"enabled": false}`, http.StatusOK, false},
		{"missing field", http.MethodPut, `{}`, http.StatusBadRequest, false},
		{"enable", http.MethodPut, `{"enabled": true}`, http.StatusOK, true},
		{"wrong method", http.MethodPost, `{"enabled": false}`, http.StatusMethodNotAllowed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/engine", strings.NewReader(tt.body)))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if a.IsEnabled() != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", a.IsEnabled(), tt.enabled)
			}
		})
	}
}

func TestServer_Hands(t *testing.T) {
	a := newTestApp(t)
	s := New(Config{App: a})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hands", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Enabled bool             `json:"enabled"`
		Hands   []app.HandStatus `json:"hands"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Enabled {
		t.Error("expected engine enabled")
	}
	if len(response.Hands) != 2 {
		t.Fatalf("expected 2 hands, got %d", len(response.Hands))
	}
	if response.Hands[0].State.String() != "idle" {
		t.Errorf("expected idle hand, got %s", response.Hands[0].State)
	}
}

func TestServer_Metrics(t *testing.T) {
	a := newTestApp(t)
	s := New(Config{App: a})

	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/interactables", bytes.NewBufferString("{")))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`chakra_http_requests_total{method="GET",route="/api/health",status="200"} 1`,
		`chakra_http_requests_total{method="POST",route="/api/interactables",status="400"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}
		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
		if s.Hub() != nil {
			t.Error("expected no event hub without an app")
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}
