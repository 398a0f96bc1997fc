// Command beamsim runs a scripted beam engagement against the reference world
// and records the session to the configured storage backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/internal/dispatcher"
	"github.com/OCAP2/beamcore/internal/influx"
	"github.com/OCAP2/beamcore/internal/logging"
	"github.com/OCAP2/beamcore/internal/mission"
	"github.com/OCAP2/beamcore/internal/monitor"
	intOtel "github.com/OCAP2/beamcore/internal/otel"
	"github.com/OCAP2/beamcore/internal/parser"
	"github.com/OCAP2/beamcore/internal/storage"
	"github.com/OCAP2/beamcore/internal/world"
	"github.com/OCAP2/beamcore/internal/worker"
	"github.com/OCAP2/beamcore/pkg/core"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ExtensionName string = "beamsim"
)

func main() {
	flags := pflag.NewFlagSet(ExtensionName, pflag.ExitOnError)
	configDir := flags.String("config", ".", "directory containing "+config.FileName)
	flags.Uint64("frames", 600, "number of frames to simulate")
	flags.Int("fps", 60, "simulation frames per second")
	flags.Uint64("seed", 1, "scenario random seed")
	flags.String("storage", "memory", "storage backend: memory, sqlite, postgres or websocket")
	flags.String("log-level", "info", "log level")
	_ = flags.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configDir, flags); err != nil {
		fmt.Fprintln(os.Stderr, "beamsim:", err)
		os.Exit(1)
	}
}

// bindFlags lets flags the user set override the config file.
func bindFlags(flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"sim.frames":   "frames",
		"sim.fps":      "fps",
		"sim.seed":     "seed",
		"storage.type": "storage",
		"logLevel":     "log-level",
	} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// run wires the stack, plays the scenario and shuts everything down in order.
func run(ctx context.Context, configDir string, flags *pflag.FlagSet) error {
	sessionStart := time.Now()

	configErr := config.Load(configDir)
	if flags != nil {
		if err := bindFlags(flags); err != nil {
			return err
		}
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, ExtensionName, sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(ctx, intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    logFile,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}

	tracker := &logging.FrameTracker{}
	logOpts := []logging.Option{logging.WithContext(tracker.Provider())}
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.DialGELF(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "beamsim: graylog disabled:", err)
		} else {
			defer gw.Close()
			host, _ := os.Hostname()
			logOpts = append(logOpts, logging.WithGELF(gw, host))
		}
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, viper.GetString("logLevel"), provider.LoggerProvider(), logOpts...)
	logger := slogManager.Logger()
	if configErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", configErr)
	}
	logger.Info("Starting up...", "version", CurrentVersion, "buildDate", BuildDate, "log", logPath, "otel", provider.Enabled())

	zlog := zerolog.New(io.MultiWriter(logFile, zerolog.ConsoleWriter{Out: os.Stderr})).
		With().Timestamp().Str("service", ExtensionName).Logger()

	// weapon registry and parsing of fire commands
	weapons := cache.NewWeaponCache()
	registerWeapons(weapons)
	parserService := parser.NewParser(logger, weapons)

	backend, err := initStorage(config.GetStorageConfig(), logger, zlog, sessionStart)
	if err != nil {
		return err
	}
	defer backend.Close()

	w := world.New(worldCapacity)
	var system *beam.System

	missionContext := mission.NewContext()
	workerManager := worker.NewManager(worker.Dependencies{
		Weapons:        weapons,
		MissionContext: missionContext,
		ParserService:  parserService,
		Fire: func(req parser.ParsedFireRequest) (core.Handle, error) {
			if req.Targeting {
				return system.FireTargeting(w, req.Request)
			}
			return system.Fire(w, req.Request)
		},
		Logger: logger,
	}, backend)

	settings := beamSettings(config.GetBeamSettings())
	system, err = beam.NewSystem(settings, beam.WithLogger(logger), beam.WithSink(workerManager))
	if err != nil {
		return fmt.Errorf("creating beam system: %w", err)
	}
	defer func() {
		if err := system.Close(); err != nil {
			logger.Warn("Failed to close beam system", "error", err)
		}
	}()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	workerManager.RegisterHandlers(eventDispatcher)

	opts := simOptionsFromConfig()
	sc, err := buildScenario(w, opts.Frames, newRNG(opts.Seed))
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	ms := &core.Mission{
		MissionName:      viper.GetString("missionName"),
		Author:           viper.GetString("author"),
		StartTime:        sessionStart,
		SkillLevel:       settings.SkillLevel,
		Authoritative:    settings.Authoritative(),
		ExtensionVersion: CurrentVersion,
		Tag:              fmt.Sprintf("seed-%d", opts.Seed),
	}
	if err := workerManager.StartMission(ms); err != nil {
		return err
	}
	tracker.SetMission(ms.MissionName)

	var points monitor.PointWriter
	influxManager := influx.NewManager(influx.ConfigFromViper(), zlog, filepath.Join(logsDir, "influx_backup.lp.gz"))
	switch err := influxManager.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Error("Failed to connect to InfluxDB", "error", err)
	default:
		points = influxManager
		defer influxManager.Close()
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		Source:         system,
		Recorder:       workerManager,
		Points:         points,
		Writer:         workerManager,
		MissionContext: missionContext,
		Logger:         logger,
		Every:          opts.StatsEvery,
		StatusPath:     filepath.Join(logsDir, "status.json"),
	})
	if err := monitorService.Start(); err != nil {
		logger.Warn("Failed to start status monitor", "error", err)
	}

	sim := &simulator{
		logger:     logger,
		world:      w,
		system:     system,
		dispatcher: eventDispatcher,
		monitor:    monitorService,
		tracker:    tracker,
		scenario:   sc,
	}
	summary := sim.run(ctx, opts)

	// drain buffered events before the backend closes the mission
	eventDispatcher.Close()
	monitorService.Stop()
	if err := workerManager.EndMission(); err != nil {
		logger.Error("Failed to end mission", "error", err)
	}
	if d, ok := backend.(interface{ Dropped() int64 }); ok && d.Dropped() > 0 {
		logger.Warn("Stream messages dropped", "count", d.Dropped())
	}
	if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		logger.Info("Session exported", "path", exp.ExportedFilePath())
		if uc := config.GetUploadConfig(); uc.Enabled {
			if err := uploadSession(ctx, uc, logger, exp.ExportedFilePath(), ms, opts, summary); err != nil {
				logger.Error("Failed to upload session", "error", err)
			}
		}
	}

	logger.Info("Simulation complete",
		"frames", summary.Frames,
		"commands", summary.Commands,
		"rejected", summary.Rejected,
		"destroyed", summary.Destroyed,
		"droppedEvents", workerManager.DroppedEvents())
	for name, hull := range summary.Hull {
		slogManager.WriteLog("summary", fmt.Sprintf("%s hull %.1f", name, hull), "INFO")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := slogManager.Flush(shutdownCtx); err != nil {
		logger.Warn("Failed to flush logs", "error", err)
	}
	return provider.Shutdown(shutdownCtx)
}

