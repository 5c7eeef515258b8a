package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ryanbastic/go-locator/internal/api"
	"github.com/ryanbastic/go-locator/internal/circuitbreaker"
	"github.com/ryanbastic/go-locator/internal/config"
	"github.com/ryanbastic/go-locator/internal/metrics"
	"github.com/ryanbastic/go-locator/internal/record"
	"github.com/ryanbastic/go-locator/internal/resource"
	"github.com/ryanbastic/go-locator/internal/storage"
)

var tables = []storage.Table{
	storage.TableFor(record.Users),
	storage.TableFor(record.Locations),
	storage.TableFor(record.Groups),
}

func main() {
	revert := flag.Bool("revert", false, "drop all tables and exit")
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	breaker := circuitbreaker.New(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
		circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
			logger.Warn("storage circuit changed state", "from", from.String(), "to", to.String())
		}),
		circuitbreaker.WithStateChange(metrics.BreakerObserver("storage")),
	)

	backends := map[string]api.Pinger{}
	var (
		users     storage.Store[*record.User]
		locations storage.Store[*record.Location]
		groups    storage.Store[*record.Group]
	)

	switch cfg.StorageDriver {
	case config.DriverMemory:
		if *revert {
			logger.Info("nothing to revert for the memory driver")
			return
		}
		users = storage.NewMemoryStore(record.Users)
		locations = storage.NewMemoryStore(record.Locations)
		groups = storage.NewMemoryStore(record.Groups)
		logger.Info("using in-memory storage")

	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		if *revert {
			if err := storage.RevertMigrations(ctx, pool, tables...); err != nil {
				logger.Error("failed to revert migrations", "error", err)
				os.Exit(1)
			}
			logger.Info("tables dropped", "tables", len(tables))
			return
		}

		if err := storage.RunMigrations(ctx, pool, tables...); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations complete", "tables", len(tables))

		prometheus.MustRegister(metrics.NewPoolCollector(map[string]*pgxpool.Pool{"postgres": pool}))
		backends["postgres"] = pool

		users = storage.NewPostgresStore(pool, record.Users, cfg.QueryTimeout)
		locations = storage.NewPostgresStore(pool, record.Locations, cfg.QueryTimeout)
		groups = storage.NewPostgresStore(pool, record.Groups, cfg.QueryTimeout)
	}

	// One breaker for all three stores: they share a backend.
	resources := []api.Resource{
		api.NewResourceHandler(resource.New[*record.User](record.Users, storage.NewGuardedStore(users, breaker), logger), logger),
		api.NewResourceHandler(resource.New[*record.Location](record.Locations, storage.NewGuardedStore(locations, breaker), logger), logger),
		api.NewResourceHandler(resource.New[*record.Group](record.Groups, storage.NewGuardedStore(groups, breaker), logger), logger),
	}

	handler := api.NewServer(logger, resources, api.NewHealthHandler(backends, breaker, logger))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
