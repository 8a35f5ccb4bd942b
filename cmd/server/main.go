package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hls-abr/internal/platform/config"
	"hls-abr/internal/platform/logger"
	"hls-abr/internal/platform/metrics"
	"hls-abr/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	capacity := config.GetEnvInt("SESSION_CAPACITY", 10000)
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	defaults, err := config.Strategy()
	if err != nil {
		log.Error("invalid strategy configuration", "error", err)
		os.Exit(1)
	}

	var store session.Store = session.NewInMemoryStore()
	if capacity > 0 {
		lru, err := session.NewLRUStore(capacity)
		if err != nil {
			log.Error("session store", "error", err)
			os.Exit(1)
		}
		store = lru
	}

	repo := session.NewInMemoryRepositoryWithStore(store)
	met := metrics.New()
	svc := session.NewService(repo, defaults,
		session.WithLogger(log),
		session.WithTelemetryFactory(met.SessionSink),
	)
	h := session.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(repo.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"variant", defaults.Variant,
		"session_capacity", capacity,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
