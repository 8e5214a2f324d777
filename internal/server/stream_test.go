package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
)

type fakeTraceSource map[hand.Side]gesture.TraceSnapshot

func (f fakeTraceSource) Snapshot(side hand.Side) (gesture.TraceSnapshot, error) {
	snap, ok := f[side]
	if !ok {
		return gesture.TraceSnapshot{}, fmt.Errorf("no hand %s", side)
	}
	return snap, nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderJPEG(snap gesture.TraceSnapshot) ([]byte, error) {
	return []byte(fmt.Sprintf("jpeg:%s:%d", snap.Mode, len(snap.Points))), nil
}

func TestTraceHandler_Stream(t *testing.T) {
	source := fakeTraceSource{
		hand.Right: {Mode: "circle", Points: make([]hand.Vec3, 3)},
		hand.Left:  {Mode: "non_circle"},
	}
	ts := httptest.NewServer(NewTraceHandler(source, fakeRenderer{}, time.Millisecond))
	defer ts.Close()

	tests := []struct {
		query string
		want  string
	}{
		{"", "jpeg:circle:3"},
		{"?hand=left", "jpeg:non_circle:0"},
		{"?hand=RIGHT", "jpeg:circle:3"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := ts.Client().Get(ts.URL + tt.query)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			defer resp.Body.Close()

			if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
				t.Errorf("Content-Type = %s", ct)
			}

			mr := multipart.NewReader(resp.Body, "frame")
			for i := 0; i < 2; i++ {
				part, err := mr.NextPart()
				if err != nil {
					t.Fatalf("NextPart() error = %v", err)
				}
				if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("part Content-Type = %s, want image/jpeg", ct)
				}
				body, _ := io.ReadAll(part)
				if !bytes.Equal(body, []byte(tt.want)) {
					t.Errorf("part body = %q, want %q", body, tt.want)
				}
			}
		})
	}
}

func TestTraceHandler_Errors(t *testing.T) {
	handler := NewTraceHandler(fakeTraceSource{}, fakeRenderer{}, 0)

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"wrong method", http.MethodPost, "/api/trace", http.StatusMethodNotAllowed},
		{"bad hand", http.MethodGet, "/api/trace?hand=third", http.StatusBadRequest},
		{"untracked hand", http.MethodGet, "/api/trace?hand=left", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
