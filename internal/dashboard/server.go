// Package dashboard provides a WebSocket server broadcasting worklog
// activity to connected clients.
//
// The team keeps a wall display showing live case flow; the daemon and CLI
// push record changes, import results and sync completions here and every
// connected client receives them as JSON messages.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/orangemri/worklog/internal/cases"
	"github.com/orangemri/worklog/internal/followups"
)

// MessageType defines the type of dashboard message.
type MessageType string

const (
	// MessageTypeRecordUpdate indicates a case or follow-up changed.
	MessageTypeRecordUpdate MessageType = "record_update"

	// MessageTypeImportComplete indicates a dropped file was imported.
	MessageTypeImportComplete MessageType = "import_complete"

	// MessageTypeSyncComplete indicates a reconciliation pass finished.
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeStats carries refreshed period statistics.
	MessageTypeStats MessageType = "stats"
)

// Message is the broadcast envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RecordUpdateData describes one record change.
type RecordUpdateData struct {
	Collection string `json:"collection"` // cases or followups
	ID         string `json:"id"`
	Action     string `json:"action"` // created, updated, deleted
}

// ImportCompleteData describes one finished file import.
type ImportCompleteData struct {
	File  string `json:"file"`
	Added int    `json:"added"`
}

// StatsData bundles the numbers the wall display shows.
type StatsData struct {
	Today     cases.Stats       `json:"today"`
	Followups followups.Summary `json:"followups"`
}

// Server manages WebSocket connections and broadcasts worklog messages.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a dashboard server listening on addr (host:port).
// If logger is nil, the default logger is used.
func NewServer(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      addr,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start begins serving. Non-blocking; use Stop to shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Broadcast queues a message for all connected clients. Messages are
// dropped rather than blocking the caller when the queue is full.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// RecordUpdate broadcasts one record change.
func (s *Server) RecordUpdate(collection, id, action string) {
	s.broadcastData(MessageTypeRecordUpdate, RecordUpdateData{
		Collection: collection,
		ID:         id,
		Action:     action,
	})
}

// ImportComplete broadcasts a finished file import. Implements the
// daemon's Notifier port.
func (s *Server) ImportComplete(file string, added int) {
	s.broadcastData(MessageTypeImportComplete, ImportCompleteData{File: file, Added: added})
}

// SyncComplete broadcasts a finished reconciliation pass. Implements the
// daemon's Notifier port.
func (s *Server) SyncComplete() {
	s.Broadcast(Message{Type: MessageTypeSyncComplete})
}

// Stats broadcasts refreshed period statistics.
func (s *Server) Stats(today cases.Stats, fu followups.Summary) {
	s.broadcastData(MessageTypeStats, StatsData{Today: today, Followups: fu})
}

func (s *Server) broadcastData(t MessageType, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Printf("Failed to marshal %s data: %v", t, err)
		return
	}
	s.Broadcast(Message{Type: t, Data: payload})
}

// broadcastLoop fans queued messages out to every client.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()

			// Writes happen outside the lock so a slow client cannot
			// stall new connections.
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", count)

	go s.readLoop(conn)
}

// readLoop drains client frames; clients only listen, so reads exist to
// detect disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; !exists {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, conn)
	count := len(s.clients)
	s.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Printf("Client disconnected (total: %d)", count)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Worklog Dashboard</title>
</head>
<body>
    <h1>Worklog Dashboard</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
