package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/scheduler"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func newLocker(ctx context.Context) services.UserLocker {
	if config.Cfg.RedisAddr == "" {
		return services.NewMemoryLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Cfg.RedisAddr,
		Password: config.Cfg.RedisPassword,
		DB:       config.Cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.L.Error("Redis unreachable, falling back to in-process import locks", "addr", config.Cfg.RedisAddr, "error", err)
		client.Close()
		return services.NewMemoryLocker()
	}
	logger.L.Info("Using Redis for per-user import locks", "addr", config.Cfg.RedisAddr)
	return services.NewRedisLocker(client, config.Cfg.ImportLockTTL)
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Trade journal backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid: at least 32 characters are required.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	tokenCipher, err := security.NewTokenCipher(config.Cfg.TokenEncryptionKey)
	if err != nil {
		stdlog.Fatalf("Failed to initialize token cipher: %v", err)
	}
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	reportCache := cache.New(config.Cfg.AnalyticsCacheTTL, services.CacheCleanupInterval)
	pipeline := processors.NewImportPipeline()
	locker := newLocker(ctx)

	analyticsService := services.NewAnalyticsService(database.DB, reportCache, config.Cfg.DisplayCurrency)
	importService := services.NewImportService(database.DB, pipeline, locker, analyticsService, config.Cfg.MaxImportRows)
	syncService := services.NewSyncService(database.DB, tokenCipher, pipeline, locker, analyticsService,
		services.KiteClientFactory(config.Cfg.KiteBaseURL, config.Cfg.KiteHTTPTimeout))
	connectionService := services.NewConnectionService(database.DB, tokenCipher)
	tradeService := services.NewTradeService(database.DB, analyticsService)

	api := handlers.Handlers{
		Users:       handlers.NewUserHandler(authService, database.DB),
		Imports:     handlers.NewImportHandler(importService),
		Sync:        handlers.NewSyncHandler(syncService),
		Connections: handlers.NewConnectionHandler(connectionService),
		Trades:      handlers.NewTradeHandler(tradeService),
		Analytics:   handlers.NewAnalyticsHandler(analyticsService),
	}

	var runner *scheduler.Runner
	if config.Cfg.SyncSchedule != "" {
		runner = scheduler.New(ctx)
		if _, err := runner.Add(config.Cfg.SyncSchedule, scheduler.SyncJob(syncService, 10*time.Minute)); err != nil {
			stdlog.Fatalf("Invalid SYNC_SCHEDULE %q: %v", config.Cfg.SyncSchedule, err)
		}
		runner.Start()
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(handlers.CORSMiddleware(config.Cfg.AllowedOrigins))
	r.Use(handlers.RateLimitMiddleware(rate.NewLimiter(rate.Every(100*time.Millisecond), 30)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Trade journal backend is running"})
	})

	r.Route("/api", api.Routes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.L.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	if runner != nil {
		runner.Stop()
	}
	database.DB.Close()
}
