package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/bookbridge/bookbridge-backend/internal/http/handlers"
	httpMW "github.com/bookbridge/bookbridge-backend/internal/http/middleware"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware      *httpMW.AuthMiddleware
	RateLimitMiddleware *httpMW.RateLimitMiddleware

	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	ChatHandler        *httpH.ChatHandler
	TranslationHandler *httpH.TranslationHandler
	ContentHandler     *httpH.ContentHandler
	ProgressHandler    *httpH.ProgressHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("bookbridge"))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.RateLimitMiddleware != nil {
			protected.Use(cfg.RateLimitMiddleware.Limit())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PUT("/me/background", cfg.UserHandler.UpdateBackground)
			protected.PUT("/me/language", cfg.UserHandler.UpdateLanguage)
			protected.PUT("/me/plan", cfg.UserHandler.UpdatePlan)
			protected.PUT("/me/profile", cfg.UserHandler.UpdatePersonalizationProfile)
		}

		// Chatbot
		if cfg.ChatHandler != nil {
			protected.POST("/chatbot/sessions", cfg.ChatHandler.StartSession)
			protected.GET("/chatbot/sessions", cfg.ChatHandler.ListSessions)
			protected.GET("/chatbot/sessions/:id/messages", cfg.ChatHandler.History)
			protected.POST("/chatbot/query", cfg.ChatHandler.Query)
		}

		// Translation
		if cfg.TranslationHandler != nil {
			protected.GET("/translation/:content_id", cfg.TranslationHandler.GetTranslation)
		}

		// Content
		if cfg.ContentHandler != nil {
			protected.POST("/content/ingest", cfg.ContentHandler.Ingest)
			protected.GET("/content/:content_id", cfg.ContentHandler.GetContent)
			protected.POST("/content/:content_id/personalize", cfg.ContentHandler.Personalize)
			protected.DELETE("/books/:book_id", cfg.ContentHandler.DeleteBook)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/progress", cfg.ProgressHandler.Report)
			protected.GET("/progress", cfg.ProgressHandler.List)
		}
	}

	return r
}
