package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"smartbin-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades HTTP connection to WebSocket. With a nil
// authenticator every connection joins as an anonymous operator; otherwise a
// valid token is required in the token query parameter.
func HandleWebSocket(hub *Hub, auth *middleware.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.UserClaims{UserID: "anonymous", Role: "operator"}

		if auth != nil {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			parsed, err := auth.ParseToken(tokenString)
			if err != nil {
				hub.logger.Debug().Err(err).Msg("❌ invalid token in query parameter")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims = parsed
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn().Err(err).Msg("❌ websocket upgrade failed")
			return
		}

		client := NewClient(claims.UserID, claims.Role, conn, hub)
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
