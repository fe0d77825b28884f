package router

import (
	"github.com/gin-gonic/gin"

	"sudooom.settlers/internal/config"
	"sudooom.settlers/internal/handler"
	"sudooom.settlers/internal/health"
	"sudooom.settlers/internal/jwt"
	"sudooom.settlers/internal/middleware"
)

// SetupRouter 设置路由
// jwtService 为 nil 时所有调用方都按观众处理
func SetupRouter(
	cfg *config.HTTPConfig,
	checker *health.Checker,
	jwtService *jwt.Service,
	stateHandler *handler.StateHandler,
	watchHandler *handler.WatchHandler,
) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.GET("/health", checker.Live)
	r.GET("/ready", checker.Ready)

	v1 := r.Group("/api/v1")
	{
		games := v1.Group("/games/:roomId")
		games.Use(middleware.Auth(jwtService))
		{
			games.GET("", stateHandler.GetSnapshot)
			games.GET("/pending", stateHandler.GetPending)
			games.GET("/events", stateHandler.ListEvents)
			games.GET("/watch", watchHandler.Watch)
		}
	}

	return r
}
