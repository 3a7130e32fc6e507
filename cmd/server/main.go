package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"pricetrends/internal/platform/config"
	"pricetrends/internal/platform/httpserver"
	"pricetrends/internal/platform/logger"
	"pricetrends/internal/platform/metrics"
	"pricetrends/internal/platform/middleware"
	"pricetrends/internal/platform/redis"
	"pricetrends/internal/pricing/cache"
	"pricetrends/internal/pricing/handler"
	"pricetrends/internal/pricing/service"
	"pricetrends/internal/pricing/store"
	"pricetrends/pkg/platform/httputil"
	"pricetrends/pkg/platform/middleware/metadata"
	"pricetrends/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires the source, cache and HTTP surface. Report logic lives in
// internal/pricing.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	src, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := src.Close(closeCtx); err != nil {
			log.Warn("closing pricing source failed", "error", err)
		}
	}()

	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithCache(cache.NewRedis(redisClient.Client, cache.WithTTL(cfg.DashboardCacheTTL))))
		log.Info("dashboard cache enabled", "ttl", cfg.DashboardCacheTTL.String())
	}

	svc, err := service.New(src.Source, opts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(log, m))
	r.Use(middleware.Recovery(log))

	r.Get("/health", health(src, redisClient))
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pricing trends server", "addr", cfg.Addr, "source", string(cfg.Source))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func health(src *store.Opened, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"source": "ok"}
		code := http.StatusOK
		if err := src.Health(ctx); err != nil {
			status["source"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["cache"] = "ok"
			if err := redisClient.Health(ctx); err != nil {
				// the service degrades to recomputing on cache errors
				status["cache"] = err.Error()
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
