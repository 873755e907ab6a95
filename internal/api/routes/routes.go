package routes

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/playvault/game-request-api/internal/api/handlers"
	"github.com/playvault/game-request-api/internal/cache"
	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/igdb"
	middlewares "github.com/playvault/game-request-api/internal/middleware"
	"github.com/playvault/game-request-api/internal/notify"
	"github.com/playvault/game-request-api/internal/popularity"
	"github.com/playvault/game-request-api/internal/requests"
)

// Deps carries the shared components the router wires into handlers.
type Deps struct {
	Catalog        *igdb.Client
	CacheStore     cache.Store
	RequestStore   *requests.Store
	RequestService *requests.Service
	Popularity     *popularity.Service
	Notifier       *notify.TelegramNotifier
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(cfg.CORSOrigins))
	if cfg.TracingEnabled {
		r.Use(middlewares.RequestTiming())
	}
	r.Use(middlewares.ExtractUserContext())

	popularityHandler := handlers.NewPopularityHandler(deps.Popularity)
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	requestHandler := handlers.NewRequestHandler(deps.RequestService)
	adminHandler := handlers.NewAdminHandler(deps.RequestService, deps.Notifier)
	healthHandler := handlers.NewHealthHandler(deps.CacheStore, deps.RequestStore)

	api := r.Group("/api/v1")
	{
		api.GET("/popular/recent", popularityHandler.RecentPopular)
		api.GET("/popular/top100", popularityHandler.CustomTop100)
		api.GET("/popular/by-type", popularityHandler.PopularByType)
		api.GET("/genres/:id/games", popularityHandler.GenreList)

		api.GET("/games/search", catalogHandler.SearchGames)
		api.GET("/games/:id", catalogHandler.GameDetail)

		api.GET("/requests/game-status/:gameId", requestHandler.GameStatus)

		authed := api.Group("", middlewares.RequireUser())
		{
			authed.POST("/requests", requestHandler.Create)
			authed.GET("/requests", requestHandler.List)
			authed.GET("/requests/:id", requestHandler.Get)
			authed.PATCH("/requests/:id", middlewares.RequireAdmin(), requestHandler.Update)
			authed.DELETE("/requests/:id", requestHandler.Delete)
		}

		admin := api.Group("/admin", middlewares.RequireUser(), middlewares.RequireAdmin())
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.POST("/settings/test-notification", adminHandler.TestNotification)
			admin.GET("/audit", adminHandler.Audit)
		}
	}

	r.GET("/liveness", healthHandler.Liveness)
	r.GET("/readiness", healthHandler.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := strings.Join(origins, ", ")
	if allowed == "" {
		allowed = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
