// Command ledgerd runs the expense reminder sweep on a schedule and serves
// operational endpoints (/metrics, /healthz).
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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/payledger/internal/config"
	"github.com/mmynk/payledger/internal/middleware"
	"github.com/mmynk/payledger/internal/push"
	"github.com/mmynk/payledger/internal/scheduler"
	"github.com/mmynk/payledger/internal/service"
	"github.com/mmynk/payledger/internal/storage/sqlstore"
	"github.com/mmynk/payledger/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	logging.Setup()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := service.Options{
		Logger:         slog.Default(),
		Metrics:        service.NewMetrics(registry),
		Location:       cfg.Location(),
		CurrencySymbol: cfg.CurrencySymbol,
	}
	devices := service.NewDeviceDirectory(store, cfg.MaxDeviceTokens, opts)
	dispatcher := service.NewDispatcher(devices, store, newProvider(cfg), opts)
	sweeper := service.NewSweeper(store, dispatcher, cfg.SweepConcurrency, opts)

	sched, err := scheduler.New(cfg.SweepCron, cfg.Location(), sweeper, cfg.ReminderOffsets, slog.Default())
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		result, err := sched.RunOnce(ctx)
		if err != nil {
			slog.Error("Sweep failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Sweep done", "expenses", result.Expenses, "intents", len(result.Intents))
		return
	}

	sched.Start()

	var server *http.Server
	if cfg.MetricsAddr != "" {
		server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           middleware.Logging(slog.Default(), opsHandler(registry, store)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Ops server starting", "address", cfg.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Ops server failed", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Warn("Sweep still running at shutdown", "error", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Ops server shutdown failed", "error", err)
		}
	}
}

func openStore(cfg *config.Config) (*sqlstore.Store, error) {
	if cfg.DBDriver == config.DriverMySQL {
		return sqlstore.Open(sqlstore.DriverMySQL, cfg.DBDSN)
	}
	return sqlstore.New(cfg.DBPath)
}

func newProvider(cfg *config.Config) push.Provider {
	if !cfg.FCM.Enabled() {
		slog.Warn("Push credentials not configured, notifications will be dropped")
		return push.Disabled{}
	}

	fcm, err := push.NewFCM(push.FCMConfig{
		ProjectID: cfg.FCM.ProjectID,
		SendURL:   cfg.FCM.SendURL,
		Credentials: push.Credentials{
			ClientEmail: cfg.FCM.ClientEmail,
			PrivateKey:  cfg.FCM.PrivateKey,
			TokenURL:    cfg.FCM.TokenURL,
			Scope:       cfg.FCM.Scope,
		},
		ExpoUsername: cfg.FCM.ExpoUsername,
		ExpoSlug:     cfg.FCM.ExpoSlug,
		Timeout:      cfg.PushTimeout,
	})
	if err != nil {
		slog.Error("Failed to configure FCM, notifications will be dropped", "error", err)
		return push.Disabled{}
	}
	return fcm
}
