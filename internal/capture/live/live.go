// Package live captures from a network interface through libpcap.
package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"

	"netradar/internal/capture"
)

const Name = "pcap"

var openLive = pcap.OpenLive

// maxReadErrors ends the read loop after this many consecutive failed reads,
// e.g. when the device has gone away.
const maxReadErrors = 100

// Config controls the live handle.
type Config struct {
	Interface string
	Filter    string
	SnapLen   int32
	Promisc   bool
	// ReadTimeout bounds how long a read blocks, so Stop is noticed promptly.
	ReadTimeout time.Duration
}

func applyDefaults(cfg Config) Config {
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = 65536
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 250 * time.Millisecond
	}
	return cfg
}

// Source is a live pcap capture.
type Source struct {
	cfg    Config
	logger zerolog.Logger
	worker capture.Worker
}

// New creates a live source. Nothing is opened until Start.
func New(cfg Config, logger zerolog.Logger) *Source {
	return &Source{
		cfg:    applyDefaults(cfg),
		logger: logger.With().Str("component", "capture").Str("backend", Name).Logger(),
	}
}

func (s *Source) Name() string { return Name }

// Start opens the interface, applies the filter and begins reading.
func (s *Source) Start(ctx context.Context, sink capture.Sink) error {
	if s.cfg.Interface == "" {
		return fmt.Errorf("%w: no interface given", capture.ErrInterfaceNotFound)
	}
	// libpcap device names ("any", \Device\NPF_{...}) are not always OS interface names.
	handle, err := openLive(s.cfg.Interface, s.cfg.SnapLen, s.cfg.Promisc, s.cfg.ReadTimeout)
	if err != nil {
		return capture.OpenError(s.cfg.Interface, err)
	}

	if s.cfg.Filter != "" {
		if err := handle.SetBPFFilter(s.cfg.Filter); err != nil {
			handle.Close()
			return fmt.Errorf("%w: %q: %v", capture.ErrInvalidFilter, s.cfg.Filter, err)
		}
	}

	s.logger.Info().
		Str("interface", s.cfg.Interface).
		Str("filter", s.cfg.Filter).
		Str("link_type", handle.LinkType().String()).
		Msg("capture started")

	return s.worker.Go(ctx, func(ctx context.Context) {
		defer handle.Close()
		s.read(ctx, handle, sink)
	})
}

func (s *Source) read(ctx context.Context, handle *pcap.Handle, sink capture.Sink) {
	decoder := handle.LinkType()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, ci, err := handle.ReadPacketData()
		switch {
		case err == nil:
		case errors.Is(err, pcap.NextErrorTimeoutExpired):
			continue
		case errors.Is(err, io.EOF):
			s.logger.Info().Msg("capture reached end of input")
			return
		default:
			failures++
			if failures >= maxReadErrors {
				s.logger.Error().Err(err).Int("failures", failures).Msg("giving up on capture")
				return
			}
			s.logger.Debug().Err(err).Msg("read packet")
			continue
		}
		failures = 0

		if !sink.Enqueue(capture.DecodeData(data, ci, decoder)) {
			return
		}
	}
}

// Stop ends the capture and releases the handle.
func (s *Source) Stop() error {
	err := s.worker.Stop()
	s.logger.Info().Msg("capture stopped")
	return err
}

// Done is closed once the read loop has exited.
func (s *Source) Done() <-chan struct{} {
	return s.worker.Done()
}

// Interface describes a capture device.
type Interface struct {
	Name        string
	Description string
	Addresses   []string
}

// Interfaces lists the devices libpcap can capture from.
func Interfaces() ([]Interface, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, capture.OpenError("devices", err)
	}
	out := make([]Interface, 0, len(devs))
	for _, d := range devs {
		iface := Interface{Name: d.Name, Description: d.Description}
		for _, a := range d.Addresses {
			iface.Addresses = append(iface.Addresses, a.IP.String())
		}
		out = append(out, iface)
	}
	return out, nil
}
