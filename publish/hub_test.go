package publish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ra2ob/snapshot"

	"github.com/gorilla/websocket"
)

type staticSource struct {
	snap atomic.Pointer[snapshot.GameSnapshot]
}

func (s *staticSource) Snapshot() *snapshot.GameSnapshot {
	return s.snap.Load()
}

type rawEnvelope struct {
	Type    string                `json:"type"`
	Payload snapshot.GameSnapshot `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) rawEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env rawEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return env
}

func TestHubSendsCurrentAndBroadcast(t *testing.T) {
	src := &staticSource{}
	src.snap.Store(snapshot.Invalid(3))

	hub := NewHub(src)
	server := httptest.NewServer(hub.Mux("/ws"))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	first := readEnvelope(t, conn)
	if first.Type != "snapshot" || first.Payload.Valid || first.Payload.Generation != 3 {
		t.Fatalf("first envelope = %+v", first)
	}
	if n := hub.Clients(); n != 1 {
		t.Fatalf("clients = %d", n)
	}

	next := snapshot.Invalid(4)
	next.Valid = true
	next.CurrentFrame = 1200
	next.Slots[2].Valid = true
	next.Slots[2].Country = "Russians"
	hub.Broadcast(next)

	got := readEnvelope(t, conn)
	if !got.Payload.Valid || got.Payload.CurrentFrame != 1200 || got.Payload.Slots[2].Country != "Russians" {
		t.Fatalf("broadcast envelope = %+v", got.Payload)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastDoesNotWaitForSlowClient(t *testing.T) {
	hub := NewHub(&staticSource{})

	// no writer is draining this client
	stalled := newClientConn(nil)
	hub.addClient(stalled)

	done := make(chan struct{})
	go func() {
		for i := uint64(1); i <= 3; i++ {
			hub.Broadcast(snapshot.Invalid(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a client that is not reading")
	}

	select {
	case s := <-stalled.pending:
		if s.Generation != 3 {
			t.Fatalf("pending generation = %d, want the newest (3)", s.Generation)
		}
	default:
		t.Fatal("nothing queued for the client")
	}
	select {
	case s := <-stalled.pending:
		t.Fatalf("older snapshot %d still queued", s.Generation)
	default:
	}
}

func TestSnapshotHandler(t *testing.T) {
	src := &staticSource{}
	s := snapshot.Invalid(9)
	s.MapName = "Little Big Lake"
	src.snap.Store(s)

	server := httptest.NewServer(NewHub(src).Mux("/ws"))
	defer server.Close()

	resp, err := http.Get(server.URL + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["map_name"] != "Little Big Lake" || got["generation"] != float64(9) {
		t.Fatalf("body = %v", got)
	}
	slots, ok := got["slots"].([]any)
	if !ok || len(slots) != 8 {
		t.Fatalf("slots = %v", got["slots"])
	}
}
