// Package httpapi wires the gin router: room REST endpoints, the ICE server
// handout, and the WebSocket signaling mount.
package httpapi

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/adapters/signal"
	"github.com/nicksbar/YAHAML-sub001/internal/config"
	"github.com/nicksbar/YAHAML-sub001/internal/core"
)

// ClientTokenMiddleware gives every browser a stable participant identity.
// Identity is trusted as supplied; there is no authentication here.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord core.RoomCoordinator, relay core.SignalRelay, bus core.EventSource) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("VoiceRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	ctl := signal.NewController(coord, relay, bus, cfg)
	go ctl.Run(ctx)

	log.Info().Str("module", "adapters.httpapi").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	rooms := &roomAPI{coord: coord}
	api.POST("/rooms", rooms.create)
	api.GET("/rooms", rooms.list)
	api.GET("/rooms/:id", rooms.get)
	api.DELETE("/rooms/:id", rooms.remove)
	api.GET("/rooms/:id/participants", rooms.participants)
	api.GET("/ice", iceServers(cfg))
	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}
