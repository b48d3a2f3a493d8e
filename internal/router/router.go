package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepkit/prepkit-backend/internal/auth"
	"github.com/prepkit/prepkit-backend/internal/config"
	"github.com/prepkit/prepkit-backend/internal/handler"
	"github.com/prepkit/prepkit-backend/internal/middleware"
	"github.com/prepkit/prepkit-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Session  *handler.SessionHandler
	Question *handler.QuestionHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate
// middlewares.
func SetupRouter(tokens *auth.TokenService, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Public ────────────────────────────────────────────────────────
	public := router.Group("/api/v1")
	{
		public.POST("/auth/token", handlers.Auth.IssueToken)
	}

	// ─── Authenticated API ─────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireUserJWT(tokens))
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", handlers.Session.CreateSession)
			sessions.POST("/resume", handlers.Session.ResumeSession)

			current := sessions.Group("/current")
			{
				current.GET("", handlers.Session.GetCurrent)
				current.POST("/start", handlers.Session.Start)
				current.POST("/pause", handlers.Session.Pause)
				current.POST("/resume", handlers.Session.Resume)
				current.POST("/next", handlers.Session.Next)
				current.POST("/prev", handlers.Session.Prev)
				current.POST("/goto", handlers.Session.GoTo)
				current.POST("/answer", handlers.Session.SubmitAnswer)
				current.POST("/flag", handlers.Session.Flag)
				current.GET("/progress", handlers.Session.GetProgress)
				current.GET("/time", handlers.Session.GetTimeRemaining)
				current.POST("/end", handlers.Session.End)
			}
		}

		api.GET("/results/:session_id", handlers.Session.GetResult)
		api.GET("/questions/count", handlers.Question.Count)
	}

	// ─── WebSocket (token via query param) ─────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireWSAuth(tokens))
	{
		wsGroup.GET("/monitor", handlers.WS.MonitorStream)
	}

	return router
}
