package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appnotif "github.com/kzhou57/orderflow/internal/application/notification"
	"github.com/kzhou57/orderflow/internal/config"
	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	"github.com/kzhou57/orderflow/internal/infrastructure/email"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/oteltrace"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/prometrics"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/telemetry"
	"github.com/kzhou57/orderflow/internal/infrastructure/observability/zaplogger"
	"github.com/kzhou57/orderflow/internal/infrastructure/rabbit"
	"github.com/kzhou57/orderflow/internal/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load("notification-service", ":8082")
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

	senderOpts := []email.Option{email.WithLatency(cfg.Email.SendLatency.Std())}
	if cfg.Email.FailureRate > 0 {
		rate := cfg.Email.FailureRate
		senderOpts = append(senderOpts, email.WithFailure(func(domnotif.Message) bool {
			return rand.Float64() < rate
		}))
	}
	sender := email.NewSender(tel, senderOpts...)

	process := appnotif.NewProcessUseCase(sender, tel)
	consumer := rabbit.NewConsumer(cfg.AMQP.URL, process, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
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
		logger.Error("service_exit", observability.F("error", err.Error()))
		return
	}
	logger.Info("service_stopped")
}

func syncLogger(l observability.Logger) {
	if s, ok := l.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
