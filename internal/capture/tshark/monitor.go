// Package tshark captures by running tshark and parsing its EK JSON output.
package tshark

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"netradar/internal/capture"
	"netradar/internal/models"
)

const Name = "tshark"

var fields = []string{
	"frame.len", "frame.protocols", "eth.dst",
	"ip.src", "ip.dst", "ipv6.src", "ipv6.dst",
	"tcp.srcport", "tcp.dstport",
	"udp.srcport", "udp.dstport",
	"dns.qry.name", "dns.flags.response",
	"http.request.method", "http.response.code", "http.host",
}

// Config controls the tshark invocation.
type Config struct {
	Interface string
	Filter    string
	// Binary defaults to "tshark" on PATH.
	Binary string
}

// Source is a tshark-backed capture.
type Source struct {
	cfg    Config
	logger zerolog.Logger
	worker capture.Worker
}

// New creates a tshark source. The process is started by Start.
func New(cfg Config, logger zerolog.Logger) *Source {
	if cfg.Binary == "" {
		cfg.Binary = "tshark"
	}
	return &Source{
		cfg:    cfg,
		logger: logger.With().Str("component", "capture").Str("backend", Name).Logger(),
	}
}

func (s *Source) Name() string { return Name }

// Args returns the tshark command line for cfg.
func Args(cfg Config) []string {
	// -l: flush stdout after each packet
	// -n: disable name resolution
	// -T ek: one JSON document per line
	args := []string{"-l", "-n", "-T", "ek"}
	for _, f := range fields {
		args = append(args, "-e", f)
	}
	if cfg.Interface != "" {
		args = append([]string{"-i", cfg.Interface}, args...)
	}
	if cfg.Filter != "" {
		args = append(args, "-f", cfg.Filter)
	}
	return args
}

// Start launches tshark and streams parsed packets to sink.
func (s *Source) Start(ctx context.Context, sink capture.Sink) error {
	bin, err := exec.LookPath(s.cfg.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", capture.ErrBackendUnavailable, s.cfg.Binary, err)
	}

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, bin, Args(s.cfg)...)

	stderr := &tailWriter{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("tshark stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return capture.OpenError(s.cfg.Interface, err)
	}

	s.logger.Info().
		Str("interface", s.cfg.Interface).
		Str("filter", s.cfg.Filter).
		Int("pid", cmd.Process.Pid).
		Msg("tshark started")

	return s.worker.Go(ctx, func(ctx context.Context) {
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		n := Stream(stdout, sink)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Str("stderr", stderr.String()).Msg("tshark exited")
		}
		s.logger.Info().Int("packets", n).Msg("tshark stopped")
	})
}

// Stream parses EK lines from r until EOF or until sink refuses a packet,
// and returns the number of packets delivered.
func Stream(r io.Reader, sink capture.Sink) int {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		ev, ok := ParseLine(scanner.Bytes())
		if !ok {
			continue
		}
		if !sink.Enqueue(ev) {
			break
		}
		n++
	}
	return n
}

// ParseLine converts one EK output line into an event. Index lines, blank
// lines and malformed JSON are skipped.
func ParseLine(line []byte) (models.PacketEvent, bool) {
	// tshark -T ek emits an index line before each packet; only packet lines carry "layers".
	if !strings.Contains(string(line), `"layers"`) {
		return models.PacketEvent{}, false
	}
	var ek EkPacket
	if err := json.Unmarshal(line, &ek); err != nil {
		return models.PacketEvent{}, false
	}
	return convert(ek), true
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func atoi(v []string) int {
	n, _ := strconv.Atoi(first(v))
	return n
}

func convert(ek EkPacket) models.PacketEvent {
	l := ek.Layers
	ev := models.PacketEvent{
		Timestamp: parseTimestamp(ek.Timestamp),
		Length:    atoi(l.FrameLen),
		SrcAddr:   first(l.IPSrc),
		DstAddr:   first(l.IPDst),
	}
	if ev.SrcAddr == "" && ev.DstAddr == "" {
		ev.SrcAddr, ev.DstAddr = first(l.IPv6Src), first(l.IPv6Dst)
	}
	ev.Broadcast = first(l.EthDst) == "ff:ff:ff:ff:ff:ff" || ev.DstAddr == "255.255.255.255"

	if len(l.TCPSrcPort) > 0 || len(l.TCPDstPort) > 0 {
		ev.Layers |= models.LayerTCP
		ev.SrcPort, ev.DstPort = atoi(l.TCPSrcPort), atoi(l.TCPDstPort)
	} else if len(l.UDPSrcPort) > 0 || len(l.UDPDstPort) > 0 {
		ev.Layers |= models.LayerUDP
		ev.SrcPort, ev.DstPort = atoi(l.UDPSrcPort), atoi(l.UDPDstPort)
	}
	if len(l.DNSQuery) > 0 {
		ev.Layers |= models.LayerDNS
	}
	if len(l.HTTPMethod) > 0 || len(l.HTTPStatus) > 0 || len(l.HTTPHost) > 0 {
		ev.Layers |= models.LayerHTTP
	}

	ev.Summary = summary(ev, l)
	return ev
}

func summary(ev models.PacketEvent, l EkLayers) string {
	switch {
	case ev.Layers.Has(models.LayerDNS):
		if r := first(l.DNSResponse); r == "1" || r == "true" || r == "True" {
			return "DNS response " + first(l.DNSQuery)
		}
		return "DNS query " + first(l.DNSQuery)
	case len(l.HTTPMethod) > 0:
		return fmt.Sprintf("HTTP %s request %s", first(l.HTTPMethod), first(l.HTTPHost))
	case len(l.HTTPStatus) > 0:
		return "HTTP response " + first(l.HTTPStatus)
	case ev.Layers.Has(models.LayerTCP) || ev.Layers.Has(models.LayerUDP):
		s := fmt.Sprintf("%d → %d", ev.SrcPort, ev.DstPort)
		if name := capture.ServiceName(ev.DstPort); name != strconv.Itoa(ev.DstPort) {
			s += " (" + name + ")"
		}
		return fmt.Sprintf("%s len=%d", s, ev.Length)
	}
	if p := first(l.FrameProtocol); p != "" {
		parts := strings.Split(p, ":")
		return strings.ToUpper(parts[len(parts)-1])
	}
	return "unknown"
}

// parseTimestamp accepts the EK timestamp, epoch milliseconds as a string.
func parseTimestamp(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}

// Stop terminates tshark and waits for the reader to drain.
func (s *Source) Stop() error {
	return s.worker.Stop()
}

// Done is closed when tshark has exited.
func (s *Source) Done() <-chan struct{} {
	return s.worker.Done()
}

// tailWriter keeps the last few KB written to it, for error reports.
type tailWriter struct {
	buf []byte
}

const tailLimit = 4096

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if len(w.buf) > tailLimit {
		w.buf = w.buf[len(w.buf)-tailLimit:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	return strings.TrimSpace(string(w.buf))
}
