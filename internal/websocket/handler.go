package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request and runs the chat connection until it closes.
// originPatterns lists extra hosts allowed to connect cross-origin.
func Serve(w http.ResponseWriter, r *http.Request, hub *Hub, responder Responder, originPatterns []string, logger *slog.Logger) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
	if err != nil {
		logger.Warn("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	NewClient(hub, conn, responder, logger).Run(r.Context())
}
