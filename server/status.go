// Package server exposes the watch loop's conversion state over HTTP: the
// last summary as JSON plus a websocket feed that pushes every new summary.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cratesync/logger"
	"cratesync/model"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusServer serves the most recent conversion summary.
type StatusServer struct {
	mu      sync.Mutex
	last    *model.ConversionSummary
	clients map[*websocket.Conn]struct{}
	srv     *http.Server
	router  *mux.Router
}

// NewStatusServer builds a status server listening on addr.
func NewStatusServer(addr string) *StatusServer {
	s := &StatusServer{
		clients: make(map[*websocket.Conn]struct{}),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/summary", s.handleSummary).Methods(http.MethodGet)
	router.HandleFunc("/api/summary/ws", s.handleSummaryWS)
	s.router = router

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *StatusServer) Handler() http.Handler {
	return s.router
}

// Start begins serving in the background.
func (s *StatusServer) Start() {
	go func() {
		logger.Info("status server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", logger.ErrorField(err))
		}
	}()
}

// Shutdown stops the server and closes all websocket clients.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	return s.srv.Shutdown(ctx)
}

// Publish records a new summary and pushes it to connected clients. Wired as
// the watch loop's OnSummary callback.
func (s *StatusServer) Publish(summary *model.ConversionSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		logger.Error("marshal summary failed", logger.ErrorField(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = summary
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("websocket write failed", logger.ErrorField(err))
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *StatusServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		logger.Warn("encode summary failed", logger.ErrorField(err))
	}
}

func (s *StatusServer) handleSummaryWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	// Registration and the initial write happen under the same lock Publish
	// takes, so two goroutines never write to one connection concurrently.
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	if s.last != nil {
		if payload, err := json.Marshal(s.last); err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("websocket write failed", logger.ErrorField(err))
			}
		}
	}
	s.mu.Unlock()

	// Reads only detect the client going away; inbound messages are ignored.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
