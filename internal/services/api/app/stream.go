package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/louisbranch/roomrant/internal/chat"
)

// timestampLayout is RFC3339 with millisecond precision, the shape clients
// already parse ("2025-10-16T18:30:00.000Z").
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

//go:embed static/chat-demo.html
var chatDemoHTML []byte

// streamMessage is the wire form of one room message on the SSE stream.
type streamMessage struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
	RoomID           string `json:"room_id"`
	ConnectedClients int    `json:"connected_clients"`
}

var pingFrame = []byte(`{"type": "ping"}`)

// sseSink writes session output as server-sent event frames, flushing after
// each one so events reach the client immediately.
type sseSink struct {
	res *echo.Response
}

func (s *sseSink) Send(ev chat.Event) error {
	payload := streamMessage{
		ID:               ev.Message.ID,
		UserID:           ev.Message.UserID,
		UserName:         ev.Message.UserName,
		Message:          ev.Message.Text,
		Timestamp:        ev.Message.Timestamp.Format(timestampLayout),
		RoomID:           ev.Message.RoomID,
		ConnectedClients: ev.ActiveCount,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stream message: %w", err)
	}
	return s.writeFrame(data)
}

func (s *sseSink) Ping() error {
	return s.writeFrame(pingFrame)
}

func (s *sseSink) writeFrame(data []byte) error {
	if _, err := fmt.Fprintf(s.res, "data: %s\n\n", data); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

// handleStream serves GET /rooms/:room_id/stream. Room validation happens
// before any stream setup so unknown rooms still get a JSON envelope.
func (s *Server) handleStream(c echo.Context) error {
	roomID := c.Param("room_id")
	channel := s.hub.Channel(roomID)
	if channel == nil {
		return respond(c, http.StatusNotFound, "Room not found", nil)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	logger := s.logger.With().Str("room_id", roomID).Logger()
	logger.Debug().Msg("stream opened")

	session := chat.NewSession(channel, &sseSink{res: res}, s.keepalive)
	if err := session.Run(c.Request().Context()); err != nil {
		// The client is gone mid-write; there is nothing left to send.
		logger.Debug().Err(err).Msg("stream closed")
		return nil
	}
	logger.Debug().Msg("stream closed")
	return nil
}

func (s *Server) handleDemo(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, chatDemoHTML)
}
