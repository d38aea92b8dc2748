package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netradar/internal/models"
)

var origin = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDetector_UnsecureProtocolIsThrottled(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{UnsecureCooldown: 10 * time.Second})
	ev := models.PacketEvent{SrcAddr: "10.0.0.5", DstAddr: "10.0.0.1", DstPort: 23, Layers: models.LayerTCP}

	for i := 0; i < 5; i++ {
		ev.Timestamp = origin.Add(time.Duration(i) * time.Second)
		ad.Observe(ev)
	}
	require.Len(t, ad.RecentAlerts(10), 1)

	ev.Timestamp = origin.Add(11 * time.Second)
	ad.Observe(ev)

	alerts := ad.RecentAlerts(10)
	require.Len(t, alerts, 2)
	assert.Equal(t, AnomalyUnsecure, alerts[1].Type)
	assert.Equal(t, "Plaintext Telnet traffic on port 23 from 10.0.0.5", alerts[1].Message)
}

func TestDetector_UnsecureIgnoresUDP(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{})
	ad.Observe(models.PacketEvent{Timestamp: origin, SrcAddr: "10.0.0.5", DstPort: 80, Layers: models.LayerUDP})
	assert.Empty(t, ad.RecentAlerts(10))
}

func TestDetector_Flood(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{FloodThreshold: 10})
	for i := 0; i < 11; i++ {
		ad.Observe(models.PacketEvent{Timestamp: origin.Add(time.Duration(i) * time.Millisecond), SrcAddr: "203.0.113.9"})
	}
	alerts := ad.RecentAlerts(10)
	require.Len(t, alerts, 1)
	assert.Equal(t, AnomalyFlood, alerts[0].Type)
	assert.Equal(t, "203.0.113.9", alerts[0].Source)

	// A slow sender never trips the threshold.
	slow := NewAnomalyDetector(DetectorConfig{FloodThreshold: 10})
	for i := 0; i < 50; i++ {
		slow.Observe(models.PacketEvent{Timestamp: origin.Add(time.Duration(i) * 200 * time.Millisecond), SrcAddr: "203.0.113.9"})
	}
	assert.Empty(t, slow.RecentAlerts(10))
}

func TestDetector_BroadcastStorm(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{BroadcastThreshold: 3})
	for i := 0; i < 4; i++ {
		ad.Observe(models.PacketEvent{Timestamp: origin, SrcAddr: fmt.Sprintf("10.0.0.%d", i), DstAddr: "255.255.255.255"})
	}
	alerts := ad.RecentAlerts(10)
	require.Len(t, alerts, 1)
	assert.Equal(t, AnomalyBroadcastStorm, alerts[0].Type)
}

func TestDetector_BroadcastFlagCounts(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{BroadcastThreshold: 3})
	for i := 0; i < 4; i++ {
		ad.Observe(models.PacketEvent{Timestamp: origin, SrcAddr: "192.168.1.10", DstAddr: "192.168.1.1", Broadcast: true})
	}
	require.Len(t, ad.RecentAlerts(10), 1)
}

func TestDetector_RetainsNewestAlerts(t *testing.T) {
	ad := NewAnomalyDetector(DetectorConfig{MaxAlerts: 3})
	for i := 0; i < 5; i++ {
		ad.Observe(models.PacketEvent{Timestamp: origin, SrcAddr: fmt.Sprintf("10.0.0.%d", i), DstPort: 21, Layers: models.LayerTCP})
	}
	assert.EqualValues(t, 5, ad.Total())

	alerts := ad.RecentAlerts(10)
	require.Len(t, alerts, 3)
	assert.Equal(t, "10.0.0.4", alerts[2].Source)

	last := ad.RecentAlerts(1)
	require.Len(t, last, 1)
	assert.Equal(t, "10.0.0.4", last[0].Source)

	last[0].Source = "mutated"
	assert.Equal(t, "10.0.0.4", ad.RecentAlerts(1)[0].Source)
}
