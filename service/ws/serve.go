package ws

import (
	"net/http"

	"CareGene/logger"
	"CareGene/middleware"
	"CareGene/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the gateway already vetted the origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and parks the connection on the hub under
// the caller's user id. Identity middleware must have run first.
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("ws upgrade failed for user %s: %v", user.ID, err)
			return
		}
		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 64),
			userID: user.ID,
		}
		hub.RegisterClient(client)
		if err := storage.PresenceOnline(c.Request.Context(), user.ID, presenceTTL); err != nil {
			logger.Warn("presence online failed for " + user.ID)
		}
		client.Serve()
	}
}
