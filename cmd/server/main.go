package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"energy_bill/internal/api"
	"energy_bill/internal/billing"
	"energy_bill/internal/config"
	"energy_bill/internal/logger"
	"energy_bill/internal/metrics"
	"energy_bill/internal/model"
	"energy_bill/internal/store"
	"energy_bill/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "YAML config file")
	fs.String("spotfile", "", "spot price CSV file")
	fs.String("sf-delimiter", ",", "spot price file delimiter")
	fs.String("consfile", "", "consumption CSV file")
	fs.String("cf-delimiter", ";", "consumption file delimiter")
	fs.String("tariff-file", "", "YAML file with tariff schedules")
	fs.String("tariff", model.DefaultTariffName, "tariff schedule name")
	fs.String("addr", ":8080", "listen address")
	fs.Int("retention", store.DefaultRetention, "number of reports kept in memory")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("frontend-dir", "frontend/build", "directory containing frontend build")
	return fs
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, stderr)

	frontendDir, _ := fs.GetString("frontend-dir")
	srv, err := newServer(ctx, cfg, frontendDir, log)
	if err != nil {
		log.WithError(err).Error("server setup failed")
		return 1
	}

	if err := serve(ctx, srv, log); err != nil {
		log.WithError(err).Error("server stopped with error")
		return 1
	}
	return 0
}

// newServer wires the report pipeline, loads the first report and returns
// the HTTP server ready to listen.
func newServer(ctx context.Context, cfg *config.Config, frontendDir string, log logrus.FieldLogger) (*http.Server, error) {
	if cfg.Spot.File == "" || cfg.Consumption.File == "" {
		return nil, errors.New("mandatory spotfile or consumption file missing")
	}
	tariff, err := cfg.ResolveTariff()
	if err != nil {
		return nil, err
	}

	metrics.Init()

	checker := billing.NewChecker(
		billing.WithTariff(tariff),
		billing.WithSpotFields(cfg.Spot.Fields),
		billing.WithConsumptionFields(cfg.Consumption.Fields),
		billing.WithLogger(log),
	)
	inputs := billing.Inputs{
		SpotFile:             cfg.Spot.File,
		SpotDelimiter:        cfg.SpotDelimiter(),
		ConsumptionFile:      cfg.Consumption.File,
		ConsumptionDelimiter: cfg.ConsumptionDelimiter(),
	}

	hub := ws.NewHub(log)
	bridge := ws.NewBridge(hub, log)
	svc := api.NewService(checker, inputs, store.New(cfg.Server.Retention), bridge.OnReport, log)

	if _, err := svc.Reload(ctx); err != nil {
		return nil, fmt.Errorf("loading initial report: %w", err)
	}

	var static http.Handler
	if frontendDir != "" {
		if _, err := os.Stat(frontendDir); err == nil {
			log.WithField("dir", frontendDir).Info("serving frontend")
			static = http.FileServer(http.Dir(frontendDir))
		}
	}

	router := api.NewRouter(
		api.NewHandler(svc, log),
		ws.NewHandler(hub, svc.Store(), svc, log),
		static,
	)
	return newHTTPServer(cfg.Server.Addr, router), nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log logrus.FieldLogger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
