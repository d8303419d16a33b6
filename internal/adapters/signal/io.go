package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn, logger zerolog.Logger) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(ctl.opts.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				logger.Debug().Msg("writePump channel closed")
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(ctl.opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				logger.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn().Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				logger.Warn().Err(err).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump owns the channel: when it returns the channel is closed in the
// hub, which runs the lifecycle cleanup.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, ch domain.ChannelID, c *WsSignalConn, logger zerolog.Logger) {
	reason := "client gone"
	defer func() {
		logger.Info().Str("reason", reason).Msg("readPump closing")
		ctl.Hub.Close(ch, reason)
		cancel()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			reason = closeReason(ctx, err)
			if reason == "error" {
				logger.Warn().Err(err).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(ch, data, logger)
	}
}

func closeReason(ctx context.Context, err error) string {
	var ce *websocket.CloseError
	switch {
	case ctx.Err() != nil:
		return "server shutdown"
	case errors.As(err, &ce):
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "client gone"
		}
		return fmt.Sprintf("close %d", ce.Code)
	}
	return "error"
}

func (ctl *SignalWSController) handleSignal(ch domain.ChannelID, data []byte, logger zerolog.Logger) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		logger.Warn().Err(err).Msg("bad json")
		ctl.Hub.SendToChannel(ch, core.EventError, core.ErrorPayload{Message: "malformed frame"})
		return
	}
	ctl.Orch.Dispatch(ch, env.Type, env.Data)
}
