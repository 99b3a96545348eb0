package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/OCAP2/roversim/internal/api"
	"github.com/OCAP2/roversim/internal/authenticity"
	"github.com/OCAP2/roversim/internal/config"
	"github.com/OCAP2/roversim/internal/control"
	"github.com/OCAP2/roversim/internal/dispatcher"
	"github.com/OCAP2/roversim/internal/logging"
	"github.com/OCAP2/roversim/internal/monitor"
	intOtel "github.com/OCAP2/roversim/internal/otel"
	"github.com/OCAP2/roversim/internal/render"
	"github.com/OCAP2/roversim/internal/simulation"
	"github.com/OCAP2/roversim/internal/storage"
	"github.com/OCAP2/roversim/pkg/core"
)

const shutdownTimeout = 10 * time.Second

// session holds the process-wide logging outputs of one run command.
type session struct {
	start    time.Time
	level    string
	out      io.Writer
	logger   *slog.Logger
	provider *intOtel.Provider
	closers  []io.Closer
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down OTel", "error", err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// openSession loads the config and wires the log outputs. A missing config
// file is reported and the defaults are used.
func openSession(configDir string, rc *simulation.RunContext) (*session, error) {
	s := &session{start: time.Now()}
	loadErr := config.Load(configDir)
	s.level = config.GetString("logLevel")

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, logging.ServiceName, s.start)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	s.out = logFile
	s.closers = append(s.closers, logFile)

	otelCfg := config.GetOTelConfig()
	providerCfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if otelCfg.Enabled && otelCfg.Endpoint == "" {
		otelFile, err := os.OpenFile(logging.LogFilePath(logsDir, logging.ServiceName+".otel", s.start), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open otel log file: %w", err)
		}
		providerCfg.LogWriter = otelFile
		s.closers = append(s.closers, otelFile)
	}
	s.provider, err = intOtel.New(providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up otel: %w", err)
	}

	opts := []logging.SetupOption{logging.WithConsole(), logging.WithContext(rc.Attrs)}
	var graylogErr error
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			graylogErr = err
		} else {
			opts = append(opts, logging.WithGraylog(w))
			s.closers = append(s.closers, w)
		}
	}

	mgr := logging.NewSlogManager()
	mgr.Setup(logFile, s.level, s.provider.LoggerProvider(), opts...)
	s.logger = mgr.Logger()

	if loadErr != nil {
		s.logger.Warn("Failed to load config, using defaults", "error", loadErr)
	} else {
		s.logger.Info("Loaded config", "dir", configDir)
	}
	if graylogErr != nil {
		s.logger.Warn("Graylog disabled", "error", graylogErr)
	}
	return s, nil
}

// newCoordinator builds the coordinator described by the loaded config.
func newCoordinator(s *session, sched dispatcher.Scheduler, rc *simulation.RunContext, rec simulation.Recorder) (*simulation.Coordinator, error) {
	simCfg := config.GetSimulationConfig()

	vehicle, err := core.ParseVehicleType(simCfg.Vehicle)
	if err != nil {
		return nil, err
	}
	level, err := authenticity.ParseLevel(simCfg.Authenticity)
	if err != nil {
		return nil, err
	}
	scenario, err := config.GetScenario()
	if err != nil {
		return nil, err
	}
	controlFn, err := control.New(simCfg.Controller, vehicle, scenario)
	if err != nil {
		return nil, err
	}

	seed := simCfg.Seed
	for seed == 0 {
		seed = rand.Int64()
	}

	var mount render.Mount = render.ImageMount{}
	if rcfg := config.GetRenderConfig(); rcfg.OutputDir != "" {
		mount = render.FrameMount{Dir: rcfg.OutputDir, Every: rcfg.Every}
	}

	return simulation.New(simulation.Options{
		Control:          controlFn,
		Scenario:         scenario,
		Rendering:        config.GetRenderingOptions(),
		Authenticity:     level.Factory(authenticity.NewSource(uint64(seed))),
		Vehicle:          vehicle,
		Mount:            mount,
		Scheduler:        sched,
		ControlInterval:  simCfg.ControlInterval,
		FrameRate:        simCfg.FrameRate,
		Recorder:         rec,
		RunContext:       rc,
		Logger:           s.logger,
		AuthenticityName: level.String(),
		ControllerName:   simCfg.Controller,
		Seed:             seed,
	})
}

// run executes one simulation until the configured duration elapses or ctx is done.
func run(ctx context.Context, configDir string) error {
	rc := simulation.NewRunContext()
	s, err := openSession(configDir, rc)
	if err != nil {
		return err
	}
	defer s.close()
	logger := s.logger

	runs, err := s.provider.Meter("github.com/OCAP2/roversim/cmd/roversim").Int64Counter(
		"roversim.runs",
		metric.WithDescription("Simulation runs started"),
	)
	if err != nil {
		return fmt.Errorf("creating runs counter: %w", err)
	}

	dl := logging.NewDispatcherLogger(logging.NewZerolog(s.out, s.level, "dispatcher"))
	d, err := dispatcher.New(dl, dispatcher.DefaultQueueSize)
	if err != nil {
		return err
	}
	defer d.Close()

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		Logger:     logger.With("component", "storage"),
		ZeroLogger: logging.NewZerolog(s.out, s.level, "storage"),
	})
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()
	logger.Info("Storage backend initialized", "type", storageCfg.Type)

	coord, err := newCoordinator(s, d, rc, backend)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := coord.Start(); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}
	runs.Add(ctx, 1)

	if mcfg := config.GetMonitorConfig(); mcfg.StatusFile != "" {
		mon := monitor.NewService(monitor.Dependencies{
			Source:     coord,
			Runs:       rc,
			Scheduler:  d,
			Logger:     logger.With("component", "monitor"),
			StatusPath: mcfg.StatusFile,
			Interval:   mcfg.Interval,
		})
		if err := mon.Start(); err != nil {
			logger.Warn("Status monitor disabled", "error", err)
		} else {
			defer mon.Stop()
		}
	}

	duration := config.GetSimulationConfig().Duration
	g.Go(func() error {
		var elapsed <-chan time.Time
		if duration > 0 {
			t := time.NewTimer(duration)
			defer t.Stop()
			elapsed = t.C
		}
		select {
		case <-gctx.Done():
			logger.Info("Interrupted")
		case <-elapsed:
			logger.Info("Run duration elapsed", "duration", duration)
		}
		coord.Stop()
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Run finished",
		"clock", coord.Clock(),
		"location", coord.Location(),
		"heading", coord.Heading())

	if up, ok := backend.(storage.Uploadable); ok {
		uploadRecording(logger, up)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer flushCancel()
	if err := s.provider.Flush(flushCtx); err != nil {
		logger.Warn("Failed to flush OTel logs", "error", err)
	}
	return nil
}

// uploadRecording sends the exported file to the collector when one is configured.
// Failures are logged; the local file stays in place.
func uploadRecording(logger *slog.Logger, up storage.Uploadable) {
	serverURL := config.GetString("api.serverUrl")
	path := up.GetExportedFilePath()
	if serverURL == "" || path == "" {
		return
	}

	client := api.New(serverURL, config.GetString("api.apiKey"))
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Healthcheck(ctx); err != nil {
		logger.Warn("Collector unreachable, skipping upload", "error", err, "path", path)
		return
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := client.Upload(ctx, path, up.GetExportMetadata()); err != nil {
		logger.Error("Failed to upload recording", "error", err, "path", path)
		return
	}
	logger.Info("Uploaded recording", "path", path, "server", serverURL)
}
