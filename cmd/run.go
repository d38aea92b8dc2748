package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"netradar/internal/capture"
	"netradar/internal/capture/live"
	"netradar/internal/capture/replay"
	"netradar/internal/capture/tshark"
	"netradar/internal/config"
	"netradar/internal/geo"
	"netradar/internal/ingest"
	"netradar/internal/logger"
	"netradar/internal/metrics"
	"netradar/internal/models"
	"netradar/internal/reporting"
	"netradar/internal/scheduler"
	"netradar/internal/tui"
)

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	log, closer, err := logger.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	sessionID := uuid.NewString()
	log = log.With().Str("session", sessionID).Logger()

	src, err := newSource(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan scheduler.InputEvent, 16)
	program := tea.NewProgram(tui.NewModel(input, cfg.Pipeline.WindowSize), tea.WithAltScreen())
	driver := tui.NewDriver(program)

	s := &session{
		cfg:     cfg,
		logger:  log,
		source:  src,
		display: driver,
		input:   input,
		ready: func() {
			driver.Start()
			go func() {
				// The dashboard went away without a quit key, e.g. the terminal closed.
				select {
				case <-driver.Done():
					cancel()
				case <-ctx.Done():
				}
			}()
		},
	}
	summary, err := s.run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := reporting.WriteSummary(out, sessionID, summary); err != nil {
		return err
	}
	if cfg.Report.Dir != "" {
		path, err := reporting.GenerateSessionReport(cfg.Report.Dir, sessionID, summary, "html")
		if err != nil {
			return fmt.Errorf("write session report: %w", err)
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
	}
	return nil
}

// newSource builds the capture backend selected by the configuration.
func newSource(cfg *config.Config, log zerolog.Logger) (capture.Source, error) {
	c := cfg.Capture
	switch c.Backend {
	case config.BackendPcap:
		return live.New(live.Config{
			Interface: c.Interface,
			Filter:    c.Filter,
			SnapLen:   int32(c.SnapLen),
			Promisc:   c.Promisc,
		}, log), nil
	case config.BackendFile:
		return replay.New(replay.Config{Path: c.File, Realtime: c.Realtime}, log), nil
	case config.BackendTshark:
		return tshark.New(tshark.Config{Interface: c.Interface, Filter: c.Filter}, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", capture.ErrBackendUnavailable, c.Backend)
	}
}

// session wires one capture run: source → queue → scheduler → display.
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	source  capture.Source
	display scheduler.Display
	input   <-chan scheduler.InputEvent
	// ready is called once capture has started, before the first frame.
	ready func()
}

// run starts capture and blocks until the render loop stops. A capture that
// cannot start is returned as an error before anything is rendered.
func (s *session) run(ctx context.Context) (scheduler.Summary, error) {
	log := s.logger
	queue := ingest.NewQueue[models.PacketEvent](s.cfg.Pipeline.QueueCapacity)
	collector := metrics.New()

	if err := s.source.Start(ctx, queue); err != nil {
		return scheduler.Summary{}, fmt.Errorf("start %s capture: %w", s.source.Name(), err)
	}

	if addr := s.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := collector.Serve(ctx, addr, logger.WithComponent(log, "metrics")); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	var locator *geo.Reader
	if path := s.cfg.GeoIP.Database; path != "" {
		r, err := geo.Open(path)
		if err != nil {
			log.Warn().Err(err).Msg("geoip disabled")
		} else {
			locator = r
			defer locator.Close()
		}
	}

	sched, err := scheduler.New(scheduler.Config{
		Interface:       s.cfg.Source(),
		TickInterval:    s.cfg.Pipeline.TickInterval,
		HistoryCapacity: s.cfg.Pipeline.HistoryCapacity,
		WindowSize:      s.cfg.Pipeline.WindowSize,
		Queue:           queue,
		Source:          s.source,
		Display:         s.display,
		Input:           s.input,
		Locator:         locator,
		Metrics:         collector,
		Logger:          log,
	})
	if err != nil {
		_ = s.source.Stop()
		return scheduler.Summary{}, err
	}

	if s.ready != nil {
		s.ready()
	}
	if err := sched.Run(ctx); err != nil {
		return scheduler.Summary{}, err
	}
	return sched.Summary(), nil
}
