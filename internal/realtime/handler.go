package realtime

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ryoevisu/kaishop-backend/pkg/auth"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
)

var errInvalidAuthFrame = errors.New("first frame must be an authenticate event")

// Handler upgrades websocket requests and binds them to the hub once the
// client proves who it is.
type Handler struct {
	hub      *Hub
	logg     *logger.Logger
	jwtCfg   config.JWTConfig
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket entry point.
func NewHandler(hub *Hub, logg *logger.Logger, jwtCfg config.JWTConfig, cfg config.RealtimeConfig) *Handler {
	return &Handler{
		hub:    hub,
		logg:   logg,
		jwtCfg: jwtCfg,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect straight from the storefront origin, which is
			// not pinned here. The authenticate frame is what gates access.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logg.Warn(r.Context(), "websocket upgrade failed")
		return
	}

	token, err := readAuthenticate(ws, h.cfg)
	if err != nil {
		h.logg.Warn(r.Context(), "websocket rejected before authentication")
		ws.Close()
		return
	}

	claims, err := auth.ParseAccessToken(h.jwtCfg, token)
	if err != nil {
		h.logg.Warn(r.Context(), "websocket token rejected")
		ws.Close()
		return
	}

	conn := newConnection(ws, claims.UserID, claims.Role == enums.RoleAdministrator, h.cfg.SendBufferSize)
	h.hub.register(conn)

	ctx := h.logg.WithUserID(r.Context(), claims.UserID.String())
	h.logg.Info(ctx, "websocket client connected")

	go conn.writeLoop(h.cfg)
	conn.readLoop(ctx, h.hub, h.cfg)

	h.logg.Info(ctx, "websocket client disconnected")
}
