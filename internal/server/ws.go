package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/interaction"
	"github.com/ayusman/chakra/internal/logger"
)

const (
	writeWait      = 5 * time.Second
	clientBuffer   = 64
	maxFrameMsgLen = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameSink accepts frames from a remote tracker. *hand.StreamTracker
// implements it.
type FrameSink interface {
	Push(f hand.Frame) (bool, error)
}

// FramesHandler ingests hand frames over WebSocket. Each text message holds
// one frame object or an array of frames.
type FramesHandler struct {
	sink FrameSink
	log  logger.Logger
}

// NewFramesHandler creates a new FramesHandler.
func NewFramesHandler(sink FrameSink, log logger.Logger) *FramesHandler {
	return &FramesHandler{sink: sink, log: logger.OrNop(log)}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameMsgLen)

	h.log.Debug(r.Context(), "frame source connected", logger.String("remote", r.RemoteAddr))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn(r.Context(), "frame source read failed", logger.Error(err))
			}
			return
		}

		frames, err := decodeFrames(msg)
		if err != nil {
			h.reply(conn, err)
			continue
		}

		for _, f := range frames {
			if _, err := h.sink.Push(f); err != nil {
				// tracker closed: the engine is shutting down
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}

func (h *FramesHandler) reply(conn *websocket.Conn, err error) {
	msg, _ := json.Marshal(map[string]string{"error": err.Error()})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, msg)
}

// decodeFrames parses and validates one message: a frame, a landmark
// skeleton, or an array mixing both.
func decodeFrames(msg []byte) ([]hand.Frame, error) {
	var items []json.RawMessage
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("invalid frames: %w", err)
		}
	} else {
		items = []json.RawMessage{trimmed}
	}

	frames := make([]hand.Frame, 0, len(items))
	for i, raw := range items {
		f, err := decodeFrame(raw)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func decodeFrame(raw json.RawMessage) (hand.Frame, error) {
	var probe struct {
		Points json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return hand.Frame{}, fmt.Errorf("invalid frame: %w", err)
	}

	var f hand.Frame
	if probe.Points != nil {
		var l hand.Landmarks
		if err := json.Unmarshal(raw, &l); err != nil {
			return hand.Frame{}, fmt.Errorf("invalid landmarks: %w", err)
		}
		converted, err := l.Frame()
		if err != nil {
			return hand.Frame{}, err
		}
		f = converted
	} else if err := json.Unmarshal(raw, &f); err != nil {
		return hand.Frame{}, fmt.Errorf("invalid frame: %w", err)
	}

	if err := f.Validate(); err != nil {
		return hand.Frame{}, err
	}
	return f, nil
}

// EventHub broadcasts interaction events to WebSocket clients. It is an
// interaction.Sink; Publish never blocks, and a client that falls behind
// loses events.
type EventHub struct {
	log logger.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	send chan []byte
}

// NewEventHub creates an EventHub.
func NewEventHub(log logger.Logger) *EventHub {
	return &EventHub{
		log:     logger.OrNop(log),
		clients: make(map[*hubClient]struct{}),
	}
}

// Publish implements interaction.Sink.
func (h *EventHub) Publish(e interaction.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *EventHub) add(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	c := &hubClient{send: make(chan []byte, clientBuffer)}
	if !h.add(c) {
		return
	}
	defer h.remove(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Keep connection alive by reading messages
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
