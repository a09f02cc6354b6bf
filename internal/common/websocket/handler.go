package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Handler upgrades a connection, authenticates it with the first message and
// registers the client under "<role>_<user_id>" so services can push updates.
func Handler(hub *Hub, jwtManager *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws_upgrade_failed", "Failed to upgrade connection", requestID, "", err.Error())
			return
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Error("ws_auth_read_failed", "Failed to read auth message", requestID, "", err.Error())
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"auth_timeout"}`))
			return
		}

		var incoming authMessage
		_ = json.Unmarshal(msg, &incoming)

		if incoming.Type != "auth" {
			logger.Warn("ws_invalid_auth_message", "Invalid auth message type", requestID, "", "")
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid_auth_message"}`))
			return
		}

		claims, err := jwtManager.Validate(incoming.Token)
		if err != nil {
			logger.Warn("ws_invalid_token", "Token invalid", requestID, "", err.Error())
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid_token"}`))
			return
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"authenticated"}`))

		clientID := fmt.Sprintf("%s_%s", strings.ToLower(claims.Role), claims.UserID)
		client := NewClient(clientID, conn)
		client.Authenticated = true
		hub.AddClient(client)
		defer hub.CloseClient(clientID)

		logger.Info("ws_client_connected", "Client authenticated and registered", requestID, clientID)

		go client.WritePump()

		conn.SetPongHandler(func(string) error {
			client.LastPong = time.Now()
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logger.Error("ws_ping_failed", "Ping failed", requestID, clientID, err.Error())
					return
				}
			default:
				conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				if _, _, err := conn.ReadMessage(); err != nil {
					logger.Info("ws_client_disconnected", "Client disconnected", requestID, clientID)
					return
				}
			}
		}
	}
}
