// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/threadline/dm-platform/internal/cache"
	"github.com/threadline/dm-platform/internal/config"
	"github.com/threadline/dm-platform/internal/events"
	"github.com/threadline/dm-platform/internal/handler"
	"github.com/threadline/dm-platform/internal/middleware"
	"github.com/threadline/dm-platform/internal/service"
	"github.com/threadline/dm-platform/internal/store"
	"github.com/threadline/dm-platform/pkg/logger"
	"github.com/threadline/dm-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "dm-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Events are optional; without NATS the services publish to a no-op.
	var publisher events.Publisher = events.NoopPublisher{}
	var natsClient *events.Client
	if cfg.NATSURL != "" {
		natsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		streamPublisher := events.NewStreamPublisher(natsClient)
		if err := streamPublisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = streamPublisher
	}

	// Unread cache is optional as well.
	var unreadCache service.UnreadCache
	if cfg.RedisAddr != "" {
		c, err := cache.NewUnread(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.UnreadCacheTTL, log)
		if err != nil {
			log.Warn("failed to connect to redis, unread cache disabled", zap.Error(err))
		} else {
			defer c.Close()
			unreadCache = c
		}
	}

	threadSvc := service.NewThreadService(st, publisher, unreadCache, log)
	messageSvc := service.NewMessageService(st, publisher, unreadCache, log)

	healthHandler := handler.NewHealthHandler(st, natsClient)
	threadHandler := handler.NewThreadHandler(threadSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(handler.IdentitySync(st, log))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/threads", func(r chi.Router) {
			r.Post("/", threadHandler.ResolveOrCreate)
			r.Delete("/", threadHandler.Delete)
			r.Get("/", threadHandler.List)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.List)
			r.Post("/", messageHandler.Create)
			r.Put("/read", messageHandler.MarkRead)
			r.Post("/unread_amount", messageHandler.UnreadAmount)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
