package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vikasprajapat2/nexa/pkg/bus"
	"github.com/vikasprajapat2/nexa/pkg/logger"
	"github.com/vikasprajapat2/nexa/pkg/memory"
)

//go:embed web
var webFS embed.FS

const (
	defaultRequestTimeout = 60 * time.Second
	maxCommandBytes       = 64 << 10
)

// Knowledge is the read/reset surface of the memory service.
type Knowledge interface {
	Stats() memory.Stats
	Export() memory.Knowledge
	ResetConversation()
}

type Options struct {
	Addr            string
	Bus             *bus.MessageBus
	Knowledge       Knowledge
	EnableWebSocket bool
	RequestTimeout  time.Duration
	// Running reports whether the assistant loop is consuming the bus.
	Running func() bool
}

// Server exposes the assistant over HTTP and WebSocket. Every utterance is
// funnelled through the message bus so the assistant answers one at a time.
type Server struct {
	bus            *bus.MessageBus
	knowledge      Knowledge
	running        func() bool
	requestTimeout time.Duration
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	clients        map[string]*wsClient
	clientsMu      sync.RWMutex
	ready          atomic.Bool
	startTime      time.Time
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

func NewServer(opts Options) *Server {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	s := &Server{
		bus:            opts.Bus,
		knowledge:      opts.Knowledge,
		running:        opts.Running,
		requestTimeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[string]*wsClient),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.HandleFunc("POST /api/command", s.commandHandler)
	mux.HandleFunc("GET /api/stats", s.statsHandler)
	mux.HandleFunc("GET /api/knowledge", s.knowledgeHandler)
	mux.HandleFunc("POST /api/conversation/reset", s.resetHandler)
	if opts.EnableWebSocket {
		mux.HandleFunc("GET /ws", s.wsHandler)
	}
	mux.HandleFunc("GET /{$}", s.indexHandler)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// SetReady flips the /ready endpoint once the assistant loop is consuming.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Server) Start() error {
	logger.InfoCF("gateway", "HTTP server starting", map[string]interface{}{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Stop closes WebSocket clients and drains in-flight HTTP requests.
func (s *Server) Stop(ctx context.Context) error {
	s.ready.Store(false)
	s.clientsMu.Lock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, webFS, "web/index.html")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() || (s.running != nil && !s.running()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) commandHandler(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	// A missing or malformed body is treated as silence.
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&req)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	out, err := s.bus.Request(ctx, bus.InboundMessage{
		Channel:  "http",
		SenderID: r.RemoteAddr,
		ChatID:   r.RemoteAddr,
		Content:  req.Command,
	})
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		logger.WarnCF("gateway", "Command request failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, status, commandResponse{Reply: "Sorry, I could not process that right now.", Source: "error"})
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Reply: out.Content, Source: out.Source})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.knowledge.Stats())
}

func (s *Server) knowledgeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.knowledge.Export())
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.knowledge.ResetConversation()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.DebugCF("gateway", "Write response failed", map[string]interface{}{"error": err.Error()})
	}
}
