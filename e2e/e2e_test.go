package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/chakra/internal/app"
	"github.com/ayusman/chakra/internal/config"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/hand/handtest"
	"github.com/ayusman/chakra/internal/interaction"
	"github.com/ayusman/chakra/internal/metrics"
	"github.com/ayusman/chakra/internal/server"
	"github.com/ayusman/chakra/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := config.New()
	cfg.DataDir = tmpDir
	cfg.PluginDir = filepath.Join(tmpDir, "plugins")

	application, err := app.New(app.Options{
		Config:  cfg,
		Store:   s,
		Tracker: hand.NewStreamTracker(hand.DefaultConfig()),
		Metrics: metrics.NewManager(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	srv := server.New(server.Config{App: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Shutdown(context.Background())

	client := ts.Client()

	var cubeID string
	t.Run("CreateInteractable", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/interactables",
			"application/json",
			strings.NewReader(`{"name": "cube", "plugin_name": "throw-physics", "position": {"x": 0, "y": 1, "z": 1}, "radius": 0.1}`),
		)
		if err != nil {
			t.Fatalf("create interactable error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		var created struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		cubeID = created.ID
	})
	if cubeID == "" {
		t.Fatal("no interactable created")
	}

	events := dial(t, ts, "/api/events")
	frames := dial(t, ts, "/api/frames")

	received := make(chan interaction.Event, 64)
	go func() {
		defer close(received)
		for {
			_, msg, err := events.ReadMessage()
			if err != nil {
				return
			}
			var e interaction.Event
			if json.Unmarshal(msg, &e) == nil {
				received <- e
			}
		}
	}()

	t.Run("PointStartsHover", func(t *testing.T) {
		frame, _ := json.Marshal(handtest.Pointing(hand.Right, hand.Vec3{Y: 1, Z: 0.5}, cubeID))

		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		timeout := time.After(3 * time.Second)

		for {
			select {
			case e, ok := <-received:
				if !ok {
					t.Fatal("event stream closed")
				}
				if e.Kind == interaction.EventHoverStart && e.TargetID == cubeID {
					if e.Hand != string(hand.Right) {
						t.Errorf("hover hand = %q, want right", e.Hand)
					}
					return
				}
			case <-ticker.C:
				if err := frames.WriteMessage(websocket.TextMessage, frame); err != nil {
					t.Fatalf("write frame error = %v", err)
				}
			case <-timeout:
				t.Fatal("no hover_start event received")
			}
		}
	})

	t.Run("HandsReportPoint", func(t *testing.T) {
		var body struct {
			Enabled bool `json:"enabled"`
			Hands   []struct {
				Side   string `json:"side"`
				State  string `json:"state"`
				Target string `json:"target"`
			} `json:"hands"`
		}
		getJSON(t, client, ts.URL+"/api/hands", &body)

		if !body.Enabled {
			t.Error("engine reported disabled")
		}
		found := false
		for _, h := range body.Hands {
			if h.Side == "right" {
				found = true
				if h.State != "point" || h.Target != cubeID {
					t.Errorf("right hand = %+v, want point at %s", h, cubeID)
				}
			}
		}
		if !found {
			t.Error("right hand missing from /api/hands")
		}
	})

	t.Run("DisableResetsHands", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/engine", strings.NewReader(`{"enabled": false}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/engine error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var body struct {
			Enabled bool `json:"enabled"`
			Hands   []struct {
				State string `json:"state"`
			} `json:"hands"`
		}
		getJSON(t, client, ts.URL+"/api/hands", &body)
		if body.Enabled {
			t.Error("engine still enabled")
		}
		for _, h := range body.Hands {
			if h.State != "idle" {
				t.Errorf("hand state = %s after disable, want idle", h.State)
			}
		}
	})

	t.Run("MetricsCountFrames", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET /metrics error = %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)

		text := string(data)
		for _, name := range []string{
			"chakra_engine_frames_ingested_total",
			"chakra_engine_transitions_total",
			`chakra_http_requests_total{method="POST",route="/api/interactables",status="201"} 1`,
		} {
			if !strings.Contains(text, name) {
				t.Errorf("metrics output missing %s", name)
			}
		}
	})
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func getJSON(t *testing.T, client *http.Client, url string, v any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s error = %v", url, err)
	}
}
