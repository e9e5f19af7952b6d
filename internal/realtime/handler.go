package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// the hub.
type Handler struct {
	hub *Hub
	log *logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, log *logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced at the gateway; the service itself is
			// never exposed directly.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Missing user identity")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Serve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := newClient(h.hub, conn, userID)
	h.hub.register(client)
	h.log.Info("Realtime client connected", "connection_id", client.ID, "user_id", userID)

	go client.writePump()
	go client.readPump()
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/ws", h.Serve)
}
