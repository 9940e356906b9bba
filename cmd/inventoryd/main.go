package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kzhou57/orderflow/internal/config"
	"github.com/kzhou57/orderflow/internal/infrastructure/memory"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/oteltrace"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/prometrics"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/telemetry"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/zaplogger"
	"github.com/kzhou57/orderflow/internal/observability"
	httppresentation "github.com/kzhou57/orderflow/internal/presentation/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load("inventory-service", ":8081")
	if err != nil {
		panic(err)
	}

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	defer syncLogger(logger)

	reg := prometrics.New("orderflow", "")
	counters, histograms := telemetry.DefaultInstruments(reg)
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	store := memory.NewInventoryStore()
	store.Seed(memory.DefaultCatalog())

	handler := httppresentation.NewInventoryHandler(store, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server_exit", observability.F("error", err.Error()))
		return
	}
	logger.Info("server_stopped")
}

func syncLogger(l observability.Logger) {
	if s, ok := l.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
