package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// LogsHandler streams scan output lines over a websocket.
type LogsHandler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewLogsHandler creates the websocket log streamer.
func NewLogsHandler(hub *Hub, logger *zap.Logger) *LogsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogsHandler{hub: hub, logger: logger.With(zap.String("component", "logs_ws"))}
}

// ServeHTTP upgrades to a websocket and forwards log lines until the client
// goes away.
func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	lines, cancel := h.hub.Subscribe()
	defer cancel()

	ctx := r.Context()
	h.logger.Info("log subscriber connected")

	// discard inbound frames so pings and close frames are processed
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case line := <-lines:
			if err := wsjson.Write(ctx, conn, line); err != nil {
				h.logger.Debug("log subscriber dropped", zap.Error(err))
				return
			}
		}
	}
}
