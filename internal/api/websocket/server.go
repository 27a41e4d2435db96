// Package websocket streams live plays to browser clients.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/publisher"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed is public and read-only
	},
}

// Server represents the WebSocket server
type Server struct {
	hub    *Hub
	server *http.Server
	log    *logging.Logger
	cancel context.CancelFunc
}

// NewServer creates a new WebSocket server and starts its hub.
func NewServer(log *logging.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	return &Server{hub: hub, log: log, cancel: cancel}
}

// Handler returns the websocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/games/live", s.handleLiveGames)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start listens on port until Shutdown.
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.server.ListenAndServe()
}

// handleLiveGames handles WebSocket connections for live play updates
func (s *Server) handleLiveGames(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// ClientCount reports connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// BroadcastPlay sends a play message to every connected client.
func (s *Server) BroadcastPlay(msg publisher.PlayMessage) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode play message")
	}
	if !s.hub.Broadcast(data) {
		s.log.Warn("websocket broadcast queue full", "game_id", msg.GameID, "key", msg.Key)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
