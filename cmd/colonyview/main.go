// Command colonyview runs a colony in a window.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moonfall/colonysim/internal/catalog"
	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/internal/sim"
	"github.com/moonfall/colonysim/internal/viewer"
)

var Version = "0.0.1"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "colonyview:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("colonyview", pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	width := fs.Int("width", 1280, "window width")
	height := fs.Int("height", 800, "window height")
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
	sess := session.NewContext("colonyview", seed, dayCfg.DayLength, Version)

	if err := os.MkdirAll(logCfg.Dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logCfg.Dir, sess.Run()))
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{
		Level:   logCfg.Level,
		Format:  logCfg.Format,
		File:    logFile,
		Context: sess.Attrs,
	})
	logger := slogManager.Logger()

	cat, err := catalog.Default()
	if simCfg.CatalogPath != "" {
		cat, err = catalog.Load(simCfg.CatalogPath)
	}
	if err != nil {
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
	}, cat, sim.WithLogger(logger), sim.WithSession(sess))
	if err != nil {
		return err
	}

	ebiten.SetWindowTitle("Colony")
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetTPS(simCfg.TickRate)
	if err := ebiten.RunGame(viewer.New(s, *width, *height)); err != nil {
		return err
	}

	final := sess.Summary(s.Survivors())
	logger.Info("viewer closed", "days", final.Days, "final", final.Final.String(), "survived", final.Survived)
	return nil
}
