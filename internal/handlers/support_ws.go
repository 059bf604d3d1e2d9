package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer; the session token gates access here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsAuth resolves the session token from the Authorization header or, for
// browser WebSocket clients that cannot set headers, the "token" query param.
func wsAuth(r *http.Request) (uuid.UUID, bool, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if adminID, ok, _ := services.ValidateAdminSession(token); ok {
		return adminID, true, true
	}
	if userID, ok, _ := services.ValidateSession(token); ok {
		return userID, false, true
	}
	return uuid.Nil, false, false
}

// SupportThreadWS streams live thread events (replies, status changes) for one
// question over a WebSocket connection.
func SupportThreadWS(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid question ID", http.StatusBadRequest)
		return
	}

	requesterID, isAdmin, ok := wsAuth(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	// Users can only watch their own threads
	if !isAdmin {
		var ownerID uuid.UUID
		err := database.PostgresDB.QueryRow(`
			SELECT user_id FROM service_questions WHERE id = $1
		`, questionID).Scan(&ownerID)
		if err != nil || ownerID != requesterID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := services.SubscribeSupportEvents(questionID.String())
	defer unsubscribe()

	// Reader: we never expect client messages, but the read loop detects
	// disconnects and services pong frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
