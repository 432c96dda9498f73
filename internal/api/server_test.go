package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trackerlink/internal/loop"
	"trackerlink/internal/protocol"
)

type fixedFrame string

func (f fixedFrame) Current() string { return string(f) }

type panickingFrame struct{}

func (panickingFrame) Current() string { panic("boom") }

type countingCompanion struct{ beats atomic.Int32 }

func (c *countingCompanion) Heartbeat() { c.beats.Add(1) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatus(t *testing.T) {
	companion := &countingCompanion{}
	s := NewServer(fixedFrame("2|0"), companion, zap.NewNop().Sugar(), Options{})

	rec := get(t, s.Handler(), "/enigma/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UP", rec.Body.String())
	assert.Equal(t, int32(0), companion.beats.Load())
}

func TestData(t *testing.T) {
	companion := &countingCompanion{}
	s := NewServer(fixedFrame("2|0"), companion, zap.NewNop().Sugar(), Options{})

	rec := get(t, s.Handler(), "/enigma/data")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2|0", rec.Body.String())
	assert.Equal(t, int32(1), companion.beats.Load())
}

func TestMethodNotAllowed(t *testing.T) {
	companion := &countingCompanion{}
	s := NewServer(fixedFrame("2|0"), companion, zap.NewNop().Sugar(), Options{})

	for _, path := range []string{"/enigma/status", "/enigma/data", "/api/stats"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	assert.Equal(t, int32(0), companion.beats.Load())
}

func TestStats(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})

	rec := get(t, s.Handler(), "/api/stats")
	assert.JSONEq(t, `{"delivering":false,"summary":null}`, rec.Body.String())

	avg := 1.5
	s.PublishSummary(loop.Summary{TicksCompleted: 60, TicksSkipped: 2, DataSent: 40, AverageTickMs: &avg})
	s.PublishDelivery(true)

	rec = get(t, s.Handler(), "/api/stats")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.True(t, stats.Delivering)
	require.NotNil(t, stats.Summary)
	assert.Equal(t, uint64(60), stats.Summary.TicksCompleted)
	assert.Equal(t, 40, stats.Summary.DataSent)
	assert.Equal(t, 1.5, *stats.Summary.AverageTickMs)
}

func TestRecoverMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewServer(panickingFrame{}, &countingCompanion{}, zap.New(core).Sugar(), Options{})

	rec := get(t, s.Handler(), "/enigma/data")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "GET /enigma/data")
}

func TestLogRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.New(core).Sugar(), Options{LogRequests: true})
	get(t, s.Handler(), "/enigma/status")
	assert.Equal(t, 1, logs.FilterMessage("API request").Len())

	core, logs = observer.New(zapcore.DebugLevel)
	s = NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.New(core).Sugar(), Options{})
	get(t, s.Handler(), "/enigma/status")
	assert.Equal(t, 0, logs.FilterMessage("API request").Len())
}

func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
		assert.NoError(t, <-done)
	})
	return ln.Addr().String()
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeHTTP(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})
	addr := startServer(t, s)

	resp, err := http.Get("http://" + addr + "/enigma/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketStream(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})
	s.PublishSummary(loop.Summary{TicksCompleted: 10})
	addr := startServer(t, s)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// New clients get the current state first.
	msg := readMessage(t, conn)
	assert.JSONEq(t, `"delivery"`, string(msg["type"]))
	assert.JSONEq(t, `{"active":false}`, string(msg["payload"]))
	msg = readMessage(t, conn)
	assert.JSONEq(t, `"summary"`, string(msg["type"]))

	require.Eventually(t, func() bool { return s.hub.clientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	s.PublishDelivery(true)
	msg = readMessage(t, conn)
	assert.JSONEq(t, `"delivery"`, string(msg["type"]))
	assert.JSONEq(t, `{"active":true}`, string(msg["payload"]))

	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypePing}))
	msg = readMessage(t, conn)
	assert.JSONEq(t, `"ping"`, string(msg["type"]))
}

func TestWebSocketIgnoresInvalidMessages(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})
	addr := startServer(t, s)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn) // delivery state

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":7}`)))
	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypePing}))
	msg := readMessage(t, conn)
	assert.JSONEq(t, `"ping"`, string(msg["type"]))
	assert.Equal(t, 1, s.hub.clientCount())
}

func TestWebSocketDisconnectRemovesViewer(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})
	addr := startServer(t, s)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return s.hub.clientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.hub.clientCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	// Broadcasting with no viewers is a no-op.
	s.PublishDelivery(true)
}

func TestShutdownClosesViewers(t *testing.T) {
	s := NewServer(fixedFrame("2|0"), &countingCompanion{}, zap.NewNop().Sugar(), Options{})
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-done)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, s.hub.clientCount())
}
