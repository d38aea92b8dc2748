package cmd

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netradar/internal/analysis"
	"netradar/internal/capture"
	"netradar/internal/capture/live"
	"netradar/internal/config"
	"netradar/internal/logger"
	"netradar/internal/scheduler"
)

func frame(t *testing.T, transport gopacket.SerializableLayer) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64,
		SrcIP: net.IP{10, 0, 0, 1}, DstIP: net.IP{93, 184, 216, 34}}

	stack := []gopacket.SerializableLayer{eth, ip}
	switch l := transport.(type) {
	case *layers.TCP:
		ip.Protocol = layers.IPProtocolTCP
		require.NoError(t, l.SetNetworkLayerForChecksum(ip))
		stack = append(stack, l)
	case *layers.UDP:
		ip.Protocol = layers.IPProtocolUDP
		require.NoError(t, l.SetNetworkLayerForChecksum(ip))
		stack = append(stack, l, gopacket.Payload("ping"))
	default:
		ip.Protocol = layers.IPProtocolICMPv4
		stack = append(stack, transport)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, stack...))
	return buf.Bytes()
}

// writeTrace writes 3 TCP, 2 UDP and 1 ICMP frame.
func writeTrace(t *testing.T) string {
	t.Helper()
	frames := [][]byte{
		frame(t, &layers.TCP{SrcPort: 51000, DstPort: 443, SYN: true, Window: 1024}),
		frame(t, &layers.UDP{SrcPort: 5000, DstPort: 9999}),
		frame(t, &layers.TCP{SrcPort: 51000, DstPort: 443, ACK: true, Window: 1024}),
		frame(t, &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}),
		frame(t, &layers.UDP{SrcPort: 5000, DstPort: 9998}),
		frame(t, &layers.TCP{SrcPort: 51000, DstPort: 443, FIN: true, ACK: true, Window: 1024}),
	}

	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	origin := time.Unix(1700000000, 0)
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     origin.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

// quitAfter presses quit once a frame shows want packets.
type quitAfter struct {
	want  uint64
	input chan scheduler.InputEvent

	mu     sync.Mutex
	frames int
	closed bool
	sent   bool
}

func (d *quitAfter) Render(s scheduler.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames++
	if s.Total >= d.want && !d.sent {
		d.sent = true
		d.input <- scheduler.Quit
	}
	return nil
}

func (d *quitAfter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func testConfig(path string) *config.Config {
	return &config.Config{
		Capture: config.CaptureConfig{Backend: config.BackendFile, File: path, SnapLen: 65536},
		Pipeline: config.PipelineConfig{
			TickInterval:    10 * time.Millisecond,
			QueueCapacity:   64,
			HistoryCapacity: 100,
			WindowSize:      15,
		},
		Log: logger.Config{Level: "info"},
	}
}

func TestSession_ReplaysFileIntoSummary(t *testing.T) {
	cfg := testConfig(writeTrace(t))
	src, err := newSource(cfg, zerolog.Nop())
	require.NoError(t, err)

	input := make(chan scheduler.InputEvent, 4)
	display := &quitAfter{want: 6, input: input}
	ready := false
	s := &session{
		cfg:     cfg,
		logger:  zerolog.Nop(),
		source:  src,
		display: display,
		input:   input,
		ready:   func() { ready = true },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := s.run(ctx)
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "session should stop on quit, not on timeout")

	assert.True(t, ready)
	assert.True(t, display.closed)
	assert.EqualValues(t, 6, summary.Total)
	assert.Equal(t, cfg.Capture.File, summary.Interface)
	assert.Equal(t, []analysis.CategoryCount{
		{Category: analysis.CategoryTCP, Count: 3},
		{Category: analysis.CategoryUDP, Count: 2},
		{Category: analysis.CategoryHTTP, Count: 0},
		{Category: analysis.CategoryDNS, Count: 0},
		{Category: analysis.CategoryOther, Count: 1},
	}, summary.Counts)

	select {
	case <-src.Done():
	default:
		t.Fatal("capture still running after session ended")
	}
}

func TestSession_StartFailureRendersNothing(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.pcap"))
	src, err := newSource(cfg, zerolog.Nop())
	require.NoError(t, err)

	display := &quitAfter{input: make(chan scheduler.InputEvent, 1)}
	s := &session{
		cfg:     cfg,
		logger:  zerolog.Nop(),
		source:  src,
		display: display,
		ready:   func() { t.Fatal("display started after a failed capture start") },
	}

	_, err = s.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrInterfaceNotFound)
	assert.Zero(t, display.frames)
}

func TestNewSource(t *testing.T) {
	for backend, want := range map[string]string{
		config.BackendPcap:   "pcap",
		config.BackendFile:   "file",
		config.BackendTshark: "tshark",
	} {
		cfg := testConfig("x.pcap")
		cfg.Capture.Backend = backend
		src, err := newSource(cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, want, src.Name())
	}

	cfg := testConfig("x.pcap")
	cfg.Capture.Backend = "netflow"
	_, err := newSource(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, capture.ErrBackendUnavailable)
}

func TestWriteInterfaces(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeInterfaces(&buf, nil))
	assert.Contains(t, buf.String(), "No capture interfaces")

	buf.Reset()
	require.NoError(t, writeInterfaces(&buf, []live.Interface{
		{Name: "eth0", Description: "Ethernet", Addresses: []string{"10.0.0.2", "fe80::1"}},
		{Name: "lo"},
	}))
	out := buf.String()
	assert.Contains(t, out, "INTERFACE")
	assert.Contains(t, out, "eth0")
	assert.Contains(t, out, "10.0.0.2, fe80::1")
	assert.Contains(t, out, "lo")
}
