// Package replay feeds packets from a pcap file, optionally paced at the
// rate they were originally captured.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog"

	"netradar/internal/capture"
)

const Name = "file"

// Config selects the file and pacing.
type Config struct {
	Path string
	// Realtime sleeps between packets to reproduce the original spacing.
	Realtime bool
}

// Source replays a pcap file.
type Source struct {
	cfg    Config
	logger zerolog.Logger
	worker capture.Worker
	now    func() time.Time
}

// New creates a replay source. The file is opened by Start.
func New(cfg Config, logger zerolog.Logger) *Source {
	return &Source{
		cfg:    cfg,
		logger: logger.With().Str("component", "capture").Str("backend", Name).Logger(),
		now:    time.Now,
	}
}

func (s *Source) Name() string { return Name }

// Start opens the file and begins replaying it. Timestamps are rebased so the
// first packet appears to arrive when Start is called.
func (s *Source) Start(ctx context.Context, sink capture.Sink) error {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", capture.ErrInterfaceNotFound, s.cfg.Path)
		}
		return capture.OpenError(s.cfg.Path, err)
	}

	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("read pcap header %s: %w", s.cfg.Path, err)
	}

	s.logger.Info().
		Str("file", s.cfg.Path).
		Bool("realtime", s.cfg.Realtime).
		Str("link_type", r.LinkType().String()).
		Msg("replay started")

	return s.worker.Go(ctx, func(ctx context.Context) {
		defer f.Close()
		n := s.replay(ctx, r, sink)
		s.logger.Info().Int("packets", n).Msg("replay finished")
	})
}

func (s *Source) replay(ctx context.Context, r *pcapgo.Reader, sink capture.Sink) int {
	decoder := r.LinkType()
	base := s.now()
	var first time.Time
	count := 0

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if ctx.Err() != nil {
			return count
		}

		data, ci, err := r.ReadPacketData()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn().Err(err).Msg("read packet")
			}
			return count
		}

		if first.IsZero() {
			first = ci.Timestamp
		}
		offset := ci.Timestamp.Sub(first)
		if offset < 0 {
			offset = 0
		}

		if s.cfg.Realtime {
			if wait := base.Add(offset).Sub(s.now()); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					return count
				case <-timer.C:
				}
			}
		}

		ci.Timestamp = base.Add(offset)
		if !sink.Enqueue(capture.DecodeData(data, ci, decoder)) {
			return count
		}
		count++
	}
}

// Stop ends the replay.
func (s *Source) Stop() error {
	return s.worker.Stop()
}

// Done is closed when the replay has ended or been stopped.
func (s *Source) Done() <-chan struct{} {
	return s.worker.Done()
}
