package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/dinevote/internal/auth"
	"github.com/mmynk/dinevote/internal/config"
	"github.com/mmynk/dinevote/internal/metrics"
	"github.com/mmynk/dinevote/internal/middleware"
	"github.com/mmynk/dinevote/internal/planning"
	"github.com/mmynk/dinevote/internal/server"
	"github.com/mmynk/dinevote/internal/service"
	"github.com/mmynk/dinevote/internal/storage"
	"github.com/mmynk/dinevote/internal/storage/memory"
	"github.com/mmynk/dinevote/internal/storage/sqlstore"
	"github.com/mmynk/dinevote/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	m := metrics.New()

	policy := storage.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Planning.MaxMutateAttempts
	policy.BaseDelay = cfg.Planning.RetryBaseDelay
	policy.OnConflict = m.StoreConflict

	store, err := openStore(cfg.Storage, policy)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	engine := planning.NewEngine(store)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Metrics sees every call, including rejected ones; logging runs with the identity attached.
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)
	path, handler := service.NewPlanServiceHandler(service.NewPlanService(engine), interceptors)

	router := server.NewRouter(server.Config{
		ServicePath:    path,
		ServiceHandler: handler,
		Health:         store,
		Metrics:        m.Handler(),
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg config.StorageConfig, policy storage.RetryPolicy) (storage.PlanStore, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(policy), nil
	case sqlstore.DriverSQLite:
		store, err := sqlstore.New(cfg.DSN, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, nil
	case sqlstore.DriverPostgres:
		store, err := sqlstore.Open(sqlstore.DriverPostgres, cfg.DSN, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
