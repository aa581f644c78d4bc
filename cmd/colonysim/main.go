// Command colonysim runs a colony headless at a fixed tick rate. Commands are
// read from stdin; --autopilot answers every prompt on its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moonfall/colonysim/internal/api"
	"github.com/moonfall/colonysim/internal/catalog"
	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/handlers"
	"github.com/moonfall/colonysim/internal/influx"
	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/internal/monitor"
	intotel "github.com/moonfall/colonysim/internal/otel"
	"github.com/moonfall/colonysim/internal/parser"
	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/internal/worker"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "colonysim"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "colonysim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	days := fs.Int("days", 0, "stop after this many days (0 runs until game over)")
	fs.Bool("autopilot", false, "answer every prompt automatically")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.Load(*configDir); err != nil {
		return err
	}
	if err := viper.BindPFlag("sim.autopilot", fs.Lookup("autopilot")); err != nil {
		return err
	}

	simCfg := config.GetSimConfig()
	dayCfg := config.GetDayConfig()
	logCfg := config.GetLogConfig()

	seed := simCfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sess := session.NewContext(AppName, seed, dayCfg.DayLength, Version)
	run := sess.Run()

	// logging
	if err := os.MkdirAll(logCfg.Dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logCfg.Dir, run)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	otelProvider, err := intotel.New(config.GetOTelConfig(), logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "otel disabled:", err)
		otelProvider, _ = intotel.New(config.OTelConfig{}, nil)
	}

	var gelfWriter io.Writer
	if g := config.GetGraylogConfig(); g.Enabled {
		w, err := logging.NewGELFWriter(g.Address, AppName)
		if err != nil {
			fmt.Fprintln(os.Stderr, "graylog disabled:", err)
		} else {
			defer w.Close()
			gelfWriter = w
		}
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{
		Level:    logCfg.Level,
		Format:   logCfg.Format,
		Console:  os.Stderr,
		File:     logFile,
		GELF:     gelfWriter,
		Provider: otelProvider.LoggerProvider(),
		Context:  sess.Attrs,
	})
	logger := slogManager.Logger()
	zlog := logging.NewZerolog(logFile, logCfg.Level, sess.Attrs)

	logger.Info("starting", "version", Version, "build", BuildDate, "run", run.ID, "seed", seed, "log", logPath)

	cat, err := loadCatalog(simCfg.CatalogPath)
	if err != nil {
		return err
	}

	// journal
	backend, err := createStorageBackend(config.GetStorageConfig(), logger, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing storage failed", "error", err)
		}
	}()

	metrics := influx.NewManager(config.GetInfluxConfig(), zlog, filepath.Join(logCfg.Dir, AppName+".influx.lp.gz"))
	var sink worker.DaySink
	if err := metrics.Connect(context.Background()); err == nil {
		metrics.SetRun(&run)
		sink = metrics
	} else if !errors.Is(err, influx.ErrDisabled) {
		logger.Warn("day metrics disabled", "error", err)
	}
	defer metrics.Close()

	d, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	defer d.Close()

	journal := worker.NewManager(worker.Dependencies{Backend: backend, Sink: sink, Logger: logger})
	journal.RegisterHandlers(d)
	if err := journal.StartRun(&run); err != nil {
		return err
	}

	s, err := sim.New(sim.Config{
		Day:          dayCfg,
		Combat:       config.GetCombatConfig(),
		Chase:        config.GetChaseConfig(),
		Presentation: config.GetPresentationConfig(),
		Speeds:       simCfg.Speeds,
		BaseCapacity: simCfg.BaseCapacity,
		Seed:         seed,
		Autopilot:    simCfg.Autopilot,
		MaxDays:      *days,
	}, cat,
		sim.WithLogger(logger),
		sim.WithPublisher(journal),
		sim.WithSession(sess),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers.NewService(handlers.Dependencies{
		Sim:     s,
		Logger:  logger,
		Version: Version,
		OnQuit:  stop,
	}).Register(d)

	monCfg := config.GetMonitorConfig()
	mon := monitor.NewService(monitor.Dependencies{
		Source:     s,
		Session:    sess,
		Journal:    journal,
		Logger:     logger,
		StatusFile: monCfg.StatusFile,
		Interval:   monCfg.Interval,
	})
	if monCfg.StatusFile != "" {
		if err := mon.Start(); err != nil {
			logger.Warn("status file disabled", "error", err)
		}
	}

	go console(ctx, os.Stdin, os.Stdout, parser.NewParser(logger), d, logger)

	runErr := s.Run(ctx, simCfg.TickRate)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("simulation stopped", "error", runErr)
	}
	mon.Stop()

	summary := sess.Summary(s.Survivors())
	if err := journal.EndRun(summary); err != nil {
		logger.Error("closing run failed", "error", err)
	}
	st := journal.Stats()
	logger.Info("run finished",
		"days", summary.Days,
		"final", summary.Final.String(),
		"survived", summary.Survived,
		"published", st.Published,
		"rejected", st.Rejected,
		"failed", st.Failed,
	)
	fmt.Fprintf(os.Stdout, "run %s finished on day %d (%s), %d survived\n",
		run.ID, summary.Days, summary.Final, summary.Survived)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	uploadRun(shutdownCtx, backend, logger)

	if err := slogManager.Flush(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "flushing logs:", err)
	}
	if err := otelProvider.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "otel shutdown:", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// uploadRun sends the exported journal to the frontend when one is
// configured and the backend left a file behind.
func uploadRun(ctx context.Context, backend storage.Backend, logger *slog.Logger) {
	apiCfg := config.GetAPIConfig()
	if apiCfg.ServerURL == "" {
		return
	}
	exp, ok := backend.(storage.Uploadable)
	if !ok {
		return
	}
	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		logger.Warn("frontend unreachable, keeping export on disk", "error", err, "path", exp.ExportedFilePath())
		return
	}
	if err := client.UploadRun(ctx, exp, apiCfg.Tag); err != nil {
		if errors.Is(err, api.ErrNoExport) {
			return
		}
		logger.Error("upload failed", "error", err, "path", exp.ExportedFilePath())
		return
	}
	logger.Info("run uploaded", "url", apiCfg.ServerURL)
}
