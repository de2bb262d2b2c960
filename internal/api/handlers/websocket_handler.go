package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/urbango/ride-engine/pkg/logger"
	"github.com/urbango/ride-engine/pkg/websocket"
)

// HandleWebSocket handles GET /v1/ws. Clients subscribe by ride id, either
// via the ride_id query param or with a {"type":"subscribe","ride_id":...}
// message, and receive status and driver-position updates until the ride
// terminates.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, h.Logger)
	if rideID := c.Query("ride_id"); rideID != "" {
		client.Subscribe(rideID)
	}
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
