// Package signal serves the websocket side of a channel: it upgrades the
// request, pumps frames in both directions and hands events to the
// orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/dkeye/pulse/internal/adapters/hub"
	"github.com/dkeye/pulse/internal/app/orch"
	"github.com/dkeye/pulse/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Options tune the pumps. Zero values fall back to defaults.
type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	Hub  *hub.Hub

	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewSignalWSController(o *orch.Orchestrator, h *hub.Hub, opts Options, logger zerolog.Logger) *SignalWSController {
	ctl := &SignalWSController{
		Orch:   o,
		Hub:    h,
		opts:   opts.withDefaults(),
		logger: logger,
	}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	return ctl
}

// checkOrigin allows same-host requests, requests without an Origin header
// and the configured origins. "*" allows everything.
func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || lo.Contains(ctl.opts.AllowedOrigins, "*") {
		return true
	}
	if lo.Contains(ctl.opts.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// WsSignalConn is the core.SignalConnection of one websocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops the write pump; the pump closes the socket once the queue
// is drained.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// HandleSignal upgrades the request and serves the channel until the socket
// or ctx ends. header is sent with the upgrade response.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, rawUserID string, header http.Header) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		ctl.logger.Warn().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	ch := ctl.Hub.Attach(conn)
	logger := ctl.logger.With().Str("ch", string(ch)).Logger()
	logger.Info().Str("remote", c.Request.RemoteAddr).Msg("new WS connection")

	state := ctl.Orch.Connect(ch, rawUserID)
	logger.Debug().Str("state", state.String()).Msg("channel opened")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn, logger)
	go ctl.readPump(ctx, cancel, ch, conn, logger)
}
