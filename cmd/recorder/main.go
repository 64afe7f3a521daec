package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedantwpatil/AutoReplay/internal/config"
	"github.com/vedantwpatil/AutoReplay/internal/library"
	"github.com/vedantwpatil/AutoReplay/internal/logging"
	"github.com/vedantwpatil/AutoReplay/internal/recording"
	"github.com/vedantwpatil/AutoReplay/internal/screencap"
	"github.com/vedantwpatil/AutoReplay/internal/target"
	"github.com/vedantwpatil/AutoReplay/internal/tracking"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "recorder: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("config loaded", "source", cfg.Source)

	app, err := NewApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go app.handleSignals(sigChan)

	return app.Run()
}

// serveMetrics exposes reg on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server", "error", err)
	}
}

func newRegistry() (*prometheus.Registry, *recording.Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := recording.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	return reg, metrics, nil
}

func newSession(cfg config.Config, src *tracking.HookSource, metrics *recording.Metrics, logger *slog.Logger) (*recording.Session, error) {
	opts, err := cfg.Record.SessionOptions()
	if err != nil {
		return nil, err
	}
	// hotkey presses must not end up in the macro they control
	opts.ExcludeKeys = append(opts.ExcludeKeys, src.TriggerRawcodes()...)
	opts.GuardKeys = src.ModifierRawcodes()
	opts.Metrics = metrics
	return recording.NewSession(src, tracking.NewRobotInjector(), opts, logger)
}

func openCapture(cfg config.Config, logger *slog.Logger) *screencap.Recorder {
	if !cfg.Capture.VideoEnabled {
		return nil
	}
	return screencap.NewRecorder(screencap.Options{
		OutputDir: cfg.Capture.OutputDir,
		FPS:       cfg.Capture.FPS,
	}, logger)
}

func openLibrary(cfg config.Config, logger *slog.Logger) (*library.Store, error) {
	return library.Open(cfg.Library.Dir, logger)
}

func newGuard(cfg config.Config) *target.Guard {
	return target.NewGuard(cfg.Target.Process)
}
