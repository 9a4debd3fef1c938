package handlers

import (
	"net/http"

	"mining_webapp/internal/logger"
	"mining_webapp/internal/service"
	"mining_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS serves the mining socket. Browsers cannot set headers on a websocket handshake, so the
// credentials come from the query: userId, authKey and initData.
func (h *Handler) WS(upgrader *websocket.Upgrader) gin.HandlerFunc {
	dispatch := ws.NewMiningDispatcher(h.Mining)
	return func(c *gin.Context) {
		id, _ := parseID(c.Query("userId"))
		u, ok := h.Authenticator.Authenticate(c.Request.Context(), service.Credentials{
			UserID:   id,
			AuthKey:  c.Query("authKey"),
			InitData: c.Query("initData"),
		})
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := ws.NewClient(u.ID, conn, h.Hub, dispatch)
		go client.Run()
	}
}
