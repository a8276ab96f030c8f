package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/repos"
	"github.com/vistascan/vistascan-backend/internal/services"
	"github.com/vistascan/vistascan-backend/internal/ws"
)

var (
	errMissingToken = errors.New("missing token")
	errUnknownUser  = errors.New("unknown user")
)

type WSHandler struct {
	log         *logger.Logger
	hub         *ws.Hub
	authService services.AuthService
	userRepo    repos.UserRepo
	upgrader    websocket.Upgrader
}

func NewWSHandler(log *logger.Logger, hub *ws.Hub, authService services.AuthService, userRepo repos.UserRepo) *WSHandler {
	return &WSHandler{
		log:         log.With("handler", "WSHandler"),
		hub:         hub,
		authService: authService,
		userRepo:    userRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// GET /ws?token=...
// Authenticates, upgrades, registers the connection with the hub and runs the
// receive loop until the client goes away. The hub never touches the raw
// transport; it only gets the channel adapter.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
		return
	}
	claims, err := h.authService.ParseToken(token)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	user, err := h.userRepo.GetByID(c.Request.Context(), nil, claims.UserID)
	if err != nil || user == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errUnknownUser)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "user_id", user.ID, "error", err)
		return
	}

	channel := ws.NewWebSocketChannel(conn)
	h.hub.Register(user.ID, user.Role, channel)
	h.log.Info("WebSocket connection established", "user_id", user.ID, "role", user.Role)

	_ = channel.Send([]byte("Connected to notifications"))

	defer func() {
		h.hub.UnregisterChannel(user.ID, channel)
		_ = channel.Close()
		h.log.Info("WebSocket connection closed", "user_id", user.ID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(data) == "ping" {
			_ = channel.Send([]byte("pong"))
		}
	}
}
