package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
)

// The default origin check only admits same-host pages, which is where the form lives.
var upgrader = websocket.Upgrader{
	HandshakeTimeout: wsWriteWait,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// handleWebSocket answers every request frame with one result or error frame.
func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// the session outlives the per-request timeout, keep only its values
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	requestID := GetRequestID(ctx)
	h.deps.Logger.Debug("websocket connected", zap.String("request_id", requestID))

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go h.pingLoop(ctx, conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.deps.Logger.Warn("websocket read error", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}

		var frame interface{}
		req, err := decodePredictInput(message)
		if err == nil {
			result, predictErr := h.predict(ctx, req)
			if predictErr == nil {
				frame = newPredictResponse(result)
			} else {
				err = predictErr
			}
		}
		if err != nil {
			frame = errorBody(err)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			h.deps.Logger.Warn("websocket write error", zap.String("request_id", requestID), zap.Error(err))
			return
		}
	}
}

// pingLoop keeps the read deadline alive. WriteControl is safe to call
// concurrently with the reader's writes.
func (h *Handlers) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
