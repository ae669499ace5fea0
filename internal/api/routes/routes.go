package routes

import (
	"net/http"

	"github.com/ekoatlas/data-api/internal/api/handlers"
	"github.com/ekoatlas/data-api/internal/config"
	middlewares "github.com/ekoatlas/data-api/internal/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// LegacyDataPrefix is the path the data endpoint was first published under.
const LegacyDataPrefix = "/.netlify/functions/datas"

// Dependencies are the handlers' collaborators, built in main.
type Dependencies struct {
	Data   handlers.DataServer
	Health *handlers.HealthHandler
	Logger *zap.Logger
}

func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestTiming())
	r.Use(middlewares.RequestLogger(logger))
	r.Use(corsMiddleware())

	dataHandler := handlers.NewDataHandler(deps.Data, cfg.CacheMaxAgeSeconds)
	r.GET("/data/*path", dataHandler.Data)
	r.GET(LegacyDataPrefix+"/*path", dataHandler.Data)

	if deps.Health != nil {
		r.GET("/liveness", deps.Health.Liveness)
		r.GET("/readiness", deps.Health.Readiness)
		r.GET("/health", deps.Health.Health)
	}

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Accept-Encoding, Cache-Control, X-Request-ID, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Data-Mode, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
