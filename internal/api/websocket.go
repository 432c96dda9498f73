package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trackerlink/internal/protocol"
)

const (
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	keepaliveEvery = 50 * time.Second
	queueSize      = 64
	maxInbound     = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Loopback only; status pages may be opened from any local origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamHub fans pipeline events out to websocket viewers. A viewer that
// cannot keep up is disconnected.
type StreamHub struct {
	server *Server
	events chan protocol.Message
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

// viewer is one websocket connection. out is closed by the hub, under mu,
// when the viewer is removed.
type viewer struct {
	hub    *StreamHub
	conn   *websocket.Conn
	out    chan []byte
	remote string
}

func newStreamHub(s *Server) *StreamHub {
	return &StreamHub{
		server:  s,
		events:  make(chan protocol.Message, queueSize),
		done:    make(chan struct{}),
		viewers: make(map[*viewer]struct{}),
	}
}

// start delivers queued events until stop.
func (h *StreamHub) start() {
	for {
		select {
		case msg := <-h.events:
			h.fanOut(msg)
		case <-h.done:
			h.mu.Lock()
			for v := range h.viewers {
				h.dropLocked(v)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *StreamHub) stop() {
	h.once.Do(func() { close(h.done) })
}

// Broadcast queues msg for every viewer. It never blocks; when the queue is
// full the message is dropped.
func (h *StreamHub) Broadcast(msg protocol.Message) {
	select {
	case h.events <- msg:
	default:
		h.server.logger.Debugw("stream queue full, dropping event", "type", msg.Type)
	}
}

func (h *StreamHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

func (h *StreamHub) fanOut(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.server.logger.Warnw("cannot encode stream event", "type", msg.Type, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		if !v.enqueue(data) {
			h.server.logger.Debugw("stream viewer too slow, disconnecting", "remote", v.remote)
			h.dropLocked(v)
		}
	}
}

// add registers v and queues the current state for it. It reports false once
// the hub is stopped.
func (h *StreamHub) add(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.viewers[v] = struct{}{}
	h.server.logger.Debugw("stream viewer connected", "remote", v.remote, "viewers", len(h.viewers))

	stats := h.server.stats()
	v.enqueueMessage(protocol.Message{Type: protocol.TypeDelivery, Payload: protocol.DeliveryPayload{Active: stats.Delivering}})
	if stats.Summary != nil {
		v.enqueueMessage(protocol.Message{Type: protocol.TypeSummary, Payload: *stats.Summary})
	}
	return true
}

func (h *StreamHub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		h.dropLocked(v)
		h.server.logger.Debugw("stream viewer disconnected", "remote", v.remote, "viewers", len(h.viewers))
	}
}

func (h *StreamHub) dropLocked(v *viewer) {
	delete(h.viewers, v)
	close(v.out)
}

// reply queues msg for v alone, if v is still connected.
func (h *StreamHub) reply(v *viewer, msg protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; ok {
		v.enqueueMessage(msg)
	}
}

func (h *StreamHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.server.logger.Debugw("stream upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	v := &viewer{hub: h, conn: conn, out: make(chan []byte, queueSize), remote: r.RemoteAddr}
	if !h.add(v) {
		conn.Close()
		return
	}
	go v.writeLoop()
	go v.readLoop()
}

func (v *viewer) enqueue(data []byte) bool {
	select {
	case v.out <- data:
		return true
	default:
		return false
	}
}

func (v *viewer) enqueueMessage(msg protocol.Message) {
	if data, err := json.Marshal(msg); err == nil {
		v.enqueue(data)
	}
}

// readLoop answers pings and detects disconnects. Any other inbound message
// is ignored.
func (v *viewer) readLoop() {
	defer func() {
		v.hub.remove(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxInbound)
	extend := func() error { return v.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	_ = extend()
	v.conn.SetPongHandler(func(string) error { return extend() })

	for {
		var msg protocol.Message
		if err := v.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				v.hub.server.logger.Debugw("stream viewer sent invalid JSON", "remote", v.remote, "error", err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.hub.server.logger.Debugw("stream viewer read failed", "remote", v.remote, "error", err)
			}
			return
		}
		if msg.Type == protocol.TypePing {
			v.hub.reply(v, protocol.Message{Type: protocol.TypePing})
		}
	}
}

// writeLoop drains out and keeps the connection alive. It sends a close
// frame when the hub drops the viewer.
func (v *viewer) writeLoop() {
	keepalive := time.NewTicker(keepaliveEvery)
	defer func() {
		keepalive.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.out:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-keepalive.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
