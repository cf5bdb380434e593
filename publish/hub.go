// Package publish fans published snapshots out to websocket clients.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ra2ob/snapshot"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// Source is where new clients get their first snapshot from.
type Source interface {
	Snapshot() *snapshot.GameSnapshot
}

type envelope struct {
	Type    string                 `json:"type"`
	Payload *snapshot.GameSnapshot `json:"payload"`
}

// clientConn is written only by its own writeLoop. pending holds at most
// the newest unsent snapshot, so a slow client skips snapshots instead of
// holding up Broadcast.
type clientConn struct {
	conn    *websocket.Conn
	pending chan *snapshot.GameSnapshot
	done    chan struct{}
}

func newClientConn(conn *websocket.Conn) *clientConn {
	return &clientConn{
		conn:    conn,
		pending: make(chan *snapshot.GameSnapshot, 1),
		done:    make(chan struct{}),
	}
}

// offer queues s, replacing a snapshot the writer has not picked up yet.
func (c *clientConn) offer(s *snapshot.GameSnapshot) {
	for {
		select {
		case c.pending <- s:
			return
		default:
		}
		select {
		case <-c.pending:
		default:
		}
	}
}

func (c *clientConn) writeJSON(value any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(value)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type Hub struct {
	source Source

	mu      sync.Mutex
	clients map[*clientConn]struct{}

	log *logger.Logger
}

func NewHub(source Source) *Hub {
	return &Hub{
		source:  source,
		clients: make(map[*clientConn]struct{}),
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "publish")),
	}
}

func (h *Hub) addClient(client *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues s for every client and returns without waiting for
// the writes.
func (h *Hub) Broadcast(s *snapshot.GameSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.offer(s)
	}
}

// writeLoop sends queued snapshots until the client goes away. A failed
// write closes the connection, which ends the read loop in Handler.
func (h *Hub) writeLoop(client *clientConn) {
	for {
		select {
		case <-client.done:
			return
		case s := <-client.pending:
			if err := client.writeJSON(envelope{Type: "snapshot", Payload: s}); err != nil {
				h.log.Debugln("write error:", err)
				_ = client.conn.Close()
				return
			}
		}
	}
}

// Handler upgrades to a websocket, sends the current snapshot and keeps
// the client registered until it disconnects. Client messages are ignored.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Debugln("ws upgrade failed:", err)
			return
		}

		client := newClientConn(conn)
		client.offer(h.source.Snapshot())
		h.addClient(client)
		go h.writeLoop(client)
		defer func() {
			h.removeClient(client)
			close(client.done)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// SnapshotHandler serves the current snapshot as plain JSON.
func (h *Hub) SnapshotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.source.Snapshot()); err != nil {
			h.log.Debugln("snapshot encode:", err)
		}
	}
}

// Mux routes path to the websocket handler and /snapshot to the JSON one.
func (h *Hub) Mux(path string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(path, h.Handler())
	mux.HandleFunc("/snapshot", h.SnapshotHandler())
	return mux
}

// ListenAndServe serves Mux(path) on addr until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, addr, path string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Mux(path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Infoln("listening on", addr, path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
