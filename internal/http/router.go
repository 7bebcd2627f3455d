package http

import (
	"net/http"
	"time"

	"ludo_arena/internal/config"
	"ludo_arena/internal/http/handlers"
	"ludo_arena/internal/http/middleware"
	"ludo_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes подключает все HTTP и websocket ручки
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, hub *ws.Hub, cfg *config.Config) {
	h := handlers.NewHandler(db, cfg.BotToken)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws", h.WS(hub))

	api := r.Group("/api")
	api.POST("/auth", middleware.RateLimit("auth", 10, time.Minute), h.Auth)
	api.GET("/profile/:id", h.Profile)
	api.GET("/leaderboard", h.Leaderboard)

	authed := api.Group("", middleware.Auth())
	authed.GET("/me", h.MyProfile)
	authed.GET("/matches/:id", h.Match)

	admin := api.Group("/admin", middleware.AdminToken(cfg.AdminToken))
	admin.GET("/revenue", h.Revenue)
}
