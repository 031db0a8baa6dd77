package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testStreamFrame struct {
	Type             string `json:"type"`
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
	RoomID           string `json:"room_id"`
	ConnectedClients int    `json:"connected_clients"`
}

func openStream(t *testing.T, ts *httptest.Server, roomID string) (*bufio.Reader, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/rooms/"+roomID+"/stream", nil)
	if err != nil {
		cancel()
		t.Fatalf("new stream request: %v", err)
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		cancel()
		t.Fatalf("open stream: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = res.Body.Close()
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}
	return bufio.NewReader(res.Body), cancel
}

// waitForActive blocks until the room's live subscriber count reaches want.
// Streams subscribe after the response headers go out, so tests that inspect
// the hub right after opening a stream must wait for the attach.
func waitForActive(t *testing.T, srv *Server, roomID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ActiveCount(roomID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("active count = %d, want %d", srv.hub.ActiveCount(roomID), want)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func readStreamFrame(t *testing.T, r *bufio.Reader) testStreamFrame {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame testStreamFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decode frame %q: %v", line, err)
		}
		return frame
	}
}

func TestStreamUnknownRoomGetsEnvelope(t *testing.T) {
	_, ts := newTestServer(t)

	res := getJSON(t, ts.URL+"/rooms/nope/stream")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	env := decodeEnvelope(t, res)
	if env.Message != "Room not found" {
		t.Fatalf("message = %q, want %q", env.Message, "Room not found")
	}
}

func TestStreamReplaysHistoryThenDeliversLive(t *testing.T) {
	_, ts := newTestServer(t)

	for _, text := range []string{"first", "second"} {
		res := postJSON(t, ts.URL+"/rooms/room1a2b3c/messages", map[string]string{
			"user_id":   "user123",
			"user_name": "John Doe",
			"message":   text,
		})
		res.Body.Close()
	}

	r, _ := openStream(t, ts, "room1a2b3c")

	replayOne := readStreamFrame(t, r)
	replayTwo := readStreamFrame(t, r)
	if replayOne.Message != "first" || replayTwo.Message != "second" {
		t.Fatalf("replay order = %q, %q", replayOne.Message, replayTwo.Message)
	}
	if replayOne.ID == "" || replayOne.UserID != "user123" || replayOne.UserName != "John Doe" {
		t.Fatalf("replay frame = %+v", replayOne)
	}
	if replayOne.RoomID != "room1a2b3c" {
		t.Fatalf("room_id = %q, want %q", replayOne.RoomID, "room1a2b3c")
	}
	if replayOne.ConnectedClients != 1 {
		t.Fatalf("connected_clients = %d, want 1", replayOne.ConnectedClients)
	}
	if _, err := time.Parse(timestampLayout, replayOne.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", replayOne.Timestamp, err)
	}

	res := postJSON(t, ts.URL+"/rooms/room1a2b3c/messages", map[string]string{
		"user_id":   "user456",
		"user_name": "Jane Doe",
		"message":   "third",
	})
	res.Body.Close()

	live := readStreamFrame(t, r)
	if live.Message != "third" || live.UserName != "Jane Doe" {
		t.Fatalf("live frame = %+v", live)
	}
}

func TestStreamIsolatesRooms(t *testing.T) {
	_, ts := newTestServer(t)

	r, _ := openStream(t, ts, "room2d4e5f")

	res := postJSON(t, ts.URL+"/rooms/room1a2b3c/messages", map[string]string{
		"user_id":   "user123",
		"user_name": "John Doe",
		"message":   "wrong room",
	})
	res.Body.Close()
	res = postJSON(t, ts.URL+"/rooms/room2d4e5f/messages", map[string]string{
		"user_id":   "user456",
		"user_name": "Jane Doe",
		"message":   "right room",
	})
	res.Body.Close()

	frame := readStreamFrame(t, r)
	if frame.Message != "right room" {
		t.Fatalf("first delivered message = %q, want %q", frame.Message, "right room")
	}
}

func TestStreamSendsPingFramesWhenIdle(t *testing.T) {
	_, ts := newTestServerWithConfig(t, Config{
		HTTPAddr:  "127.0.0.1:0",
		Keepalive: 20 * time.Millisecond,
		Logger:    zerolog.Nop(),
	})

	r, _ := openStream(t, ts, "room1a2b3c")

	frame := readStreamFrame(t, r)
	if frame.Type != "ping" {
		t.Fatalf("idle frame type = %q, want %q", frame.Type, "ping")
	}
}

func TestStreamEndsWhenHubCloses(t *testing.T) {
	srv, ts := newTestServer(t)

	r, _ := openStream(t, ts, "room1a2b3c")
	waitForActive(t, srv, "room1a2b3c", 1)
	srv.hub.CloseAll()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
	}
	t.Fatal("stream did not end after hub close")
}
