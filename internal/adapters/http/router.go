package http

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dkeye/pulse/internal/adapters/hub"
	"github.com/dkeye/pulse/internal/adapters/signal"
	"github.com/dkeye/pulse/internal/app/orch"
	"github.com/dkeye/pulse/internal/config"
)

const (
	sessionName   = "PulseSessions"
	sessionUserID = "user_id"
)

type Deps struct {
	Orch     *orch.Orchestrator
	Hub      *hub.Hub
	Gatherer prometheus.Gatherer
	Clock    clock.Clock
	Logger   zerolog.Logger
}

type StatusResponse struct {
	OnlineUsers int    `json:"onlineUsers"`
	Channels    int    `json:"channels"`
	Groups      int    `json:"groups"`
	Sessions    int    `json:"sessions"`
	Uptime      string `json:"uptime"`
}

// UserIDMiddleware resolves the user id of the request: the userId query
// parameter wins and is remembered in the session cookie, otherwise the
// remembered value is used.
func UserIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := c.Query("userId")
		if userID != "" {
			if session.Get(sessionUserID) != userID {
				session.Set(sessionUserID, userID)
				_ = session.Save()
			}
		} else if v, ok := session.Get(sessionUserID).(string); ok {
			userID = v
		}
		c.Set(sessionUserID, userID)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	logger := deps.Logger
	started := deps.Clock.Now()

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	ctl := signal.NewSignalWSController(deps.Orch, deps.Hub, signal.Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger.With().Str("module", "signal").Logger())

	r.GET("/ws", UserIDMiddleware(), func(c *gin.Context) {
		// the upgrade writes its own response, so cookies set above travel
		// in the upgrade header
		header := http.Header{}
		for _, v := range c.Writer.Header().Values("Set-Cookie") {
			header.Add("Set-Cookie", v)
		}
		ctl.HandleSignal(ctx, c, c.GetString(sessionUserID), header)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, StatusResponse{
			OnlineUsers: deps.Orch.Registry.Len(),
			Channels:    deps.Hub.ChannelCount(),
			Groups:      deps.Hub.GroupCount(),
			Sessions:    deps.Orch.Lifecycle.Sessions(),
			Uptime:      deps.Clock.Since(started).Truncate(time.Second).String(),
		})
	})
	api.GET("/presence", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Orch.Registry.Snapshot())
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	logger.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
