package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/duel-system/middleware"
	"github.com/Dosada05/duel-system/notifications"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin to the deployed frontend domains.
		return true
	},
}

type WebSocketHandler struct {
	hub *notifications.Hub
}

func NewWebSocketHandler(hub *notifications.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeWs upgrades the connection and registers it as a notification channel
// for the authenticated user. Multiple connections per user are allowed.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		log.Printf("failed to upgrade connection for user %d: %v", userID, err)
		return
	}

	client := &notifications.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
