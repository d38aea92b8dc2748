package analysis

import (
	"fmt"
	"time"

	"netradar/internal/models"
)

// AnomalyType represents the type of anomaly detected.
type AnomalyType string

const (
	AnomalyBroadcastStorm AnomalyType = "BROADCAST_STORM"
	AnomalyUnsecure       AnomalyType = "UNSECURE_PROTOCOL"
	AnomalyFlood          AnomalyType = "POSSIBLE_FLOOD"
)

// DetectorConfig holds thresholds for the anomaly detector.
type DetectorConfig struct {
	BroadcastThreshold int           // broadcasts per second
	FloodThreshold     int           // packets per second from one source
	UnsecureCooldown   time.Duration // quiet period per source/port pair
	CleanupInterval    time.Duration
	DataRetention      time.Duration
	MaxAlerts          int
}

// DefaultDetectorConfig returns the default thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		BroadcastThreshold: 50,
		FloodThreshold:     500,
		UnsecureCooldown:   10 * time.Second,
		CleanupInterval:    time.Minute,
		DataRetention:      5 * time.Minute,
		MaxAlerts:          20,
	}
}

// Alert represents a detected anomaly.
type Alert struct {
	Type      AnomalyType
	Source    string
	Message   string
	Timestamp time.Time
}

var unsecurePorts = map[int]string{
	21: "FTP",
	23: "Telnet",
	80: "HTTP",
}

// AnomalyDetector watches traffic for suspicious patterns. Time is taken
// from packet timestamps. Like TrafficStats it belongs to the render loop
// and is not safe for concurrent use.
type AnomalyDetector struct {
	config DetectorConfig

	broadcastCount  int
	broadcastWindow time.Time

	unsecureAlerts map[string]time.Time // "src:port" -> last alert

	srcCount  map[string]int
	srcWindow map[string]time.Time

	alerts []Alert
	total  uint64

	lastCleanup time.Time
}

// NewAnomalyDetector creates a detector. Zero thresholds fall back to the defaults.
func NewAnomalyDetector(cfg DetectorConfig) *AnomalyDetector {
	def := DefaultDetectorConfig()
	if cfg.BroadcastThreshold <= 0 {
		cfg.BroadcastThreshold = def.BroadcastThreshold
	}
	if cfg.FloodThreshold <= 0 {
		cfg.FloodThreshold = def.FloodThreshold
	}
	if cfg.UnsecureCooldown <= 0 {
		cfg.UnsecureCooldown = def.UnsecureCooldown
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.DataRetention <= 0 {
		cfg.DataRetention = def.DataRetention
	}
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = def.MaxAlerts
	}
	return &AnomalyDetector{
		config:         cfg,
		unsecureAlerts: make(map[string]time.Time),
		srcCount:       make(map[string]int),
		srcWindow:      make(map[string]time.Time),
	}
}

// Observe checks one packet against every rule.
func (ad *AnomalyDetector) Observe(ev models.PacketEvent) {
	now := ev.Timestamp

	if ad.lastCleanup.IsZero() {
		ad.lastCleanup = now
	} else if now.Sub(ad.lastCleanup) > ad.config.CleanupInterval {
		ad.cleanup(now)
		ad.lastCleanup = now
	}

	ad.detectBroadcastStorm(ev, now)
	ad.detectUnsecureProtocol(ev, now)
	ad.detectFlood(ev, now)
}

func (ad *AnomalyDetector) cleanup(now time.Time) {
	for key, last := range ad.unsecureAlerts {
		if now.Sub(last) > ad.config.DataRetention {
			delete(ad.unsecureAlerts, key)
		}
	}
	for src, start := range ad.srcWindow {
		if now.Sub(start) > ad.config.DataRetention {
			delete(ad.srcWindow, src)
			delete(ad.srcCount, src)
		}
	}
}

func isBroadcast(ev models.PacketEvent) bool {
	return ev.Broadcast || ev.DstAddr == "255.255.255.255" || ev.DstAddr == "ff:ff:ff:ff:ff:ff"
}

func (ad *AnomalyDetector) detectBroadcastStorm(ev models.PacketEvent, now time.Time) {
	if !isBroadcast(ev) {
		return
	}
	if now.Sub(ad.broadcastWindow) > time.Second {
		ad.broadcastCount = 0
		ad.broadcastWindow = now
	}
	ad.broadcastCount++

	if ad.broadcastCount > ad.config.BroadcastThreshold {
		ad.addAlert(Alert{
			Type:      AnomalyBroadcastStorm,
			Source:    "network",
			Message:   fmt.Sprintf("Broadcast storm detected: %d broadcasts in 1 second", ad.broadcastCount),
			Timestamp: now,
		})
		ad.broadcastCount = 0
		ad.broadcastWindow = now
	}
}

func (ad *AnomalyDetector) detectUnsecureProtocol(ev models.PacketEvent, now time.Time) {
	if !ev.Layers.Has(models.LayerTCP) {
		return
	}
	name, ok := unsecurePorts[ev.DstPort]
	if !ok {
		return
	}

	key := fmt.Sprintf("%s:%d", ev.SrcAddr, ev.DstPort)
	if last, seen := ad.unsecureAlerts[key]; seen && now.Sub(last) <= ad.config.UnsecureCooldown {
		return
	}
	ad.addAlert(Alert{
		Type:      AnomalyUnsecure,
		Source:    ev.SrcAddr,
		Message:   fmt.Sprintf("Plaintext %s traffic on port %d from %s", name, ev.DstPort, ev.SrcAddr),
		Timestamp: now,
	})
	ad.unsecureAlerts[key] = now
}

func (ad *AnomalyDetector) detectFlood(ev models.PacketEvent, now time.Time) {
	src := ev.SrcAddr
	if src == "" {
		return
	}

	start, ok := ad.srcWindow[src]
	if !ok || now.Sub(start) > time.Second {
		ad.srcWindow[src] = now
		ad.srcCount[src] = 0
	}
	ad.srcCount[src]++

	if n := ad.srcCount[src]; n > ad.config.FloodThreshold {
		ad.addAlert(Alert{
			Type:      AnomalyFlood,
			Source:    src,
			Message:   fmt.Sprintf("High packet rate from %s: %d pps", src, n),
			Timestamp: now,
		})
		ad.srcCount[src] = 0
		ad.srcWindow[src] = now
	}
}

func (ad *AnomalyDetector) addAlert(a Alert) {
	ad.total++
	ad.alerts = append(ad.alerts, a)
	if len(ad.alerts) > ad.config.MaxAlerts {
		ad.alerts = ad.alerts[len(ad.alerts)-ad.config.MaxAlerts:]
	}
}

// Total returns how many alerts were raised, including ones no longer retained.
func (ad *AnomalyDetector) Total() uint64 {
	return ad.total
}

// RecentAlerts returns up to limit of the newest alerts, newest last.
// The slice is a copy.
func (ad *AnomalyDetector) RecentAlerts(limit int) []Alert {
	start := 0
	if limit >= 0 && len(ad.alerts) > limit {
		start = len(ad.alerts) - limit
	}
	out := make([]Alert, len(ad.alerts)-start)
	copy(out, ad.alerts[start:])
	return out
}
