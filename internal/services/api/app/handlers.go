package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/louisbranch/roomrant/internal/catalog"
)

// envelope is the uniform shape of every non-stream response body.
type envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{
		Status:  status,
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

// roomView is a catalog room plus its live subscriber count.
type roomView struct {
	catalog.Room
	ActiveUsers int `json:"active_users"`
}

type joinRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type sendMessageRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Message  string `json:"message"`
}

func (s *Server) handleWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Welcome to Room Rant API! Visit /docs for documentation, /demo for chat demo",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListRooms(c echo.Context) error {
	rooms := s.catalog.List()
	views := make([]roomView, len(rooms))
	for i, room := range rooms {
		views[i] = roomView{Room: room, ActiveUsers: s.hub.ActiveCount(room.ID)}
	}
	return respond(c, http.StatusOK, "Rooms retrieved successfully", map[string]any{
		"rooms":       views,
		"total_rooms": len(views),
	})
}

func (s *Server) handleJoinRoom(c echo.Context) error {
	roomID := c.Param("room_id")

	var req joinRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "user_id and user_name are required", nil)
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.UserName) == "" {
		return respond(c, http.StatusBadRequest, "user_id and user_name are required", nil)
	}
	if _, ok := s.catalog.Lookup(roomID); !ok {
		return respond(c, http.StatusNotFound, "Room not found", nil)
	}

	// Joining is a stateless acknowledgment; presence begins when the
	// client opens the stream.
	return respond(c, http.StatusOK, fmt.Sprintf("Successfully joined room %s", roomID), map[string]any{
		"room_id":   roomID,
		"user_id":   req.UserID,
		"user_name": req.UserName,
	})
}

func (s *Server) handleSendMessage(c echo.Context) error {
	roomID := c.Param("room_id")

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "user_id, user_name, and message are required", nil)
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.Message) == "" {
		return respond(c, http.StatusBadRequest, "user_id, user_name, and message are required", nil)
	}
	channel := s.hub.Channel(roomID)
	if channel == nil {
		return respond(c, http.StatusNotFound, "Room not found", nil)
	}

	msg := channel.Publish(req.UserID, req.UserName, req.Message)
	s.logger.Debug().Str("room_id", roomID).Str("message_id", msg.ID).Msg("message published")
	return respond(c, http.StatusOK, "Message sent successfully", map[string]any{
		"message_id": msg.ID,
		"room_id":    roomID,
	})
}

func (s *Server) handleDocs(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"title":       "Room Rant API",
		"version":     "1.0",
		"description": "A real-time chat room API with Server-Sent Events for live messaging",
		"endpoints": []map[string]string{
			{"method": "GET", "path": "/rooms", "description": "List available chat rooms"},
			{"method": "POST", "path": "/rooms/{room_id}/join", "description": "Join a chat room"},
			{"method": "POST", "path": "/rooms/{room_id}/messages", "description": "Send a message to a room"},
			{"method": "GET", "path": "/rooms/{room_id}/stream", "description": "Stream room messages via Server-Sent Events"},
			{"method": "GET", "path": "/health", "description": "Health check"},
			{"method": "GET", "path": "/demo", "description": "Interactive chat demo page"},
		},
	})
}
