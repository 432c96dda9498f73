// Package api provides the loopback HTTP server used by the companion plugin
// and for local status monitoring.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"trackerlink/internal/loop"
	"trackerlink/internal/protocol"
)

// DefaultPort is the port the companion plugin polls.
const DefaultPort = 52821

// FrameSource returns the most recently encoded frame.
type FrameSource interface {
	Current() string
}

// HeartbeatRecorder is told whenever the companion plugin polls for data.
type HeartbeatRecorder interface {
	Heartbeat()
}

// Options configures a Server.
type Options struct {
	// LogRequests logs every request at debug level.
	LogRequests bool
}

// Server serves the companion endpoints, pipeline statistics and a websocket
// stream of both.
type Server struct {
	frames    FrameSource
	companion HeartbeatRecorder
	logger    *zap.SugaredLogger
	opts      Options
	hub       *StreamHub

	mu         sync.RWMutex
	summary    *loop.Summary
	delivering bool
	httpServer *http.Server
}

// Stats is the body of GET /api/stats.
type Stats struct {
	Delivering bool          `json:"delivering"`
	Summary    *loop.Summary `json:"summary"`
}

// NewServer creates a server. It does not listen until Start or Serve.
func NewServer(frames FrameSource, companion HeartbeatRecorder, logger *zap.SugaredLogger, opts Options) *Server {
	s := &Server{
		frames:    frames,
		companion: companion,
		logger:    logger,
		opts:      opts,
	}
	s.hub = newStreamHub(s)
	return s
}

// Start listens on the loopback interface and serves until Shutdown. It
// blocks.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		s.logger.Errorw("status server failed to listen", "addr", addr, "error", err)
		return err
	}
	s.logger.Debugw("status server listening", "addr", addr)
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It blocks.
func (s *Server) Serve(ln net.Listener) error {
	go s.hub.start()

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Errorw("status server stopped", "error", err)
		return err
	}
	return nil
}

// Shutdown stops the server and closes websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.httpServer
	s.mu.RUnlock()

	s.hub.stop()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/enigma/status", s.handleStatus)
	mux.HandleFunc("/enigma/data", s.handleData)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.hub.handleWebSocket)
	return s.logMiddleware(s.recoverMiddleware(mux))
}

// PublishSummary stores summary for /api/stats and streams it to websocket
// clients.
func (s *Server) PublishSummary(summary loop.Summary) {
	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()
	s.hub.Broadcast(protocol.Message{Type: protocol.TypeSummary, Payload: summary})
}

// PublishDelivery records whether frames are currently being delivered.
func (s *Server) PublishDelivery(active bool) {
	s.mu.Lock()
	s.delivering = active
	s.mu.Unlock()
	s.hub.Broadcast(protocol.Message{Type: protocol.TypeDelivery, Payload: protocol.DeliveryPayload{Active: active}})
}

func (s *Server) stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Delivering: s.delivering, Summary: s.summary}
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Errorf("An exception occurred processing %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	if !s.opts.LogRequests {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugw("API request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// handleStatus handles GET /enigma/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "UP")
}

// handleData handles GET /enigma/data. Polling counts as a companion
// heartbeat.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.companion.Heartbeat()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.frames.Current())
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats()); err != nil {
		s.logger.Debugw("failed to write stats", "error", err)
	}
}
