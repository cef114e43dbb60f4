package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bookbridge/bookbridge-backend/internal/clients/redis"
	"github.com/bookbridge/bookbridge-backend/internal/data/db"
	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	"github.com/bookbridge/bookbridge-backend/internal/http"
	"github.com/bookbridge/bookbridge-backend/internal/http/handlers"
	"github.com/bookbridge/bookbridge-backend/internal/http/middleware"
	"github.com/bookbridge/bookbridge-backend/internal/observability"
	"github.com/bookbridge/bookbridge-backend/internal/platform/envutil"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
	"github.com/bookbridge/bookbridge-backend/internal/platform/qdrant"
	"github.com/bookbridge/bookbridge-backend/internal/rag"
	"github.com/bookbridge/bookbridge-backend/internal/scheduler"
	"github.com/bookbridge/bookbridge-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "bookbridge-backend",
		Environment: envutil.GetEnv("ENVIRONMENT", "development", log),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	// Env
	jwtSecretKey := os.Getenv("BETTER_AUTH_SECRET")
	if jwtSecretKey == "" {
		jwtSecretKey = envutil.GetEnv("JWT_SECRET_KEY", "", log)
	}
	accessTokenTTL := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := envutil.GetEnvAsInt("REFRESH_TOKEN_TTL", 30*86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	allRepos := repos.NewRepos(thePG, log)

	// Redis
	cache, err := redis.NewCache(log)
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	// Qdrant
	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		log.Error("Qdrant config invalid", "error", err)
		os.Exit(1)
	}
	vectorStore, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		log.Error("Qdrant init failed", "error", err)
		os.Exit(1)
	}

	// OpenAI
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("OpenAI init failed", "error", err)
		os.Exit(1)
	}

	// Services
	authService, err := services.NewAuthService(
		thePG, log, allRepos.User, allRepos.UserToken,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	if err != nil {
		log.Error("Auth init failed", "error", err)
		os.Exit(1)
	}
	retriever := rag.NewRetriever(log, aiClient, vectorStore, allRepos.BookContent)
	userService := services.NewUserService(thePG, log, allRepos.User, allRepos.PersonalizationProfile)
	contentService := services.NewContentService(thePG, log, aiClient, vectorStore, allRepos.BookContent, allRepos.TranslationCache)
	chatService := services.NewChatService(thePG, log, aiClient, retriever, allRepos.User, allRepos.BookContent, allRepos.ChatSession, allRepos.ChatMessage)
	translationService := services.NewTranslationService(thePG, log, aiClient, cache, allRepos.BookContent, allRepos.TranslationCache)
	personalizationService := services.NewPersonalizationService(thePG, log, aiClient, allRepos.User, allRepos.PersonalizationProfile, allRepos.BookContent)
	progressService := services.NewProgressService(thePG, log, allRepos.UserProgress)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(log, userService, personalizationService)
	chatHandler := handlers.NewChatHandler(log, chatService)
	translationHandler := handlers.NewTranslationHandler(log, translationService, userService)
	contentHandler := handlers.NewContentHandler(log, contentService, personalizationService)
	progressHandler := handlers.NewProgressHandler(log, progressService)
	healthHandler := handlers.NewHealthHandler()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, cache)

	// Scheduler
	sweeper := scheduler.New(log, allRepos.TranslationCache, allRepos.UserToken, allRepos.ChatSession)
	sweeper.Start()
	defer sweeper.Stop()

	// Router
	router := http.NewRouter(http.RouterConfig{
		Log:                 log,
		AuthMiddleware:      authMiddleware,
		RateLimitMiddleware: rateLimitMiddleware,
		AuthHandler:         authHandler,
		UserHandler:         userHandler,
		ChatHandler:         chatHandler,
		TranslationHandler:  translationHandler,
		ContentHandler:      contentHandler,
		ProgressHandler:     progressHandler,
		HealthHandler:       healthHandler,
	})

	port := envutil.GetEnv("PORT", "8080", log)
	srv := &nethttp.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
}
