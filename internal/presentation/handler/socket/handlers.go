package socket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/converse/internal/infrastructure/configs"
	"github.com/hilthontt/converse/internal/infrastructure/ws"
	"go.uber.org/zap"
)

type Handler struct {
	core     *ws.Core
	upgrader websocket.Upgrader
	cfg      configs.WSConfig
	logger   *zap.SugaredLogger
}

func NewHandler(core *ws.Core, cfg configs.WSConfig, allowedOrigins []string, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		core: core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		cfg:    cfg,
		logger: logger,
	}
}

// UpgradeHandler promotes the request to a websocket connection and hands it
// to the core. The connection starts unidentified; the client introduces
// itself with a join event.
func (h *Handler) UpgradeHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("ws upgrade failed", "remoteAddr", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(conn, h.cfg.SendBuffer, h.cfg.WriteTimeout)
	h.core.Accept(client)

	h.logger.Debugw("ws connection accepted", "connId", client.ID, "remoteAddr", r.RemoteAddr)

	go client.WritePump()
	go client.ReadPump(h.core)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
