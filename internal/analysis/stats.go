package analysis

import (
	"time"

	"netradar/internal/models"
)

// minElapsed floors the elapsed time used for throughput right after startup.
const minElapsed = 1e-3

// CategoryCount is the count for one category.
type CategoryCount struct {
	Category Category
	Count    uint64
}

// TrafficStats holds running counters for the whole session.
// It is owned by the render loop and is not safe for concurrent use.
type TrafficStats struct {
	total      uint64
	totalBytes uint64
	counts     [numCategories]uint64

	windowBytes   uint64
	windowPackets uint64
	lastTick      time.Time
}

// NewTrafficStats creates a TrafficStats whose rate window starts at now.
func NewTrafficStats(now time.Time) *TrafficStats {
	return &TrafficStats{lastTick: now}
}

// Record counts one packet under c.
func (s *TrafficStats) Record(c Category) {
	if c < 0 || c >= numCategories {
		c = CategoryOther
	}
	s.total++
	s.counts[c]++
	s.windowPackets++
}

// RecordEvent counts ev under c and adds its length to the byte counters.
func (s *TrafficStats) RecordEvent(ev models.PacketEvent, c Category) {
	s.Record(c)
	if ev.Length > 0 {
		s.totalBytes += uint64(ev.Length)
		s.windowBytes += uint64(ev.Length)
	}
}

// Total returns the number of packets recorded.
func (s *TrafficStats) Total() uint64 {
	return s.total
}

// TotalBytes returns the number of bytes recorded.
func (s *TrafficStats) TotalBytes() uint64 {
	return s.totalBytes
}

// Count returns the number of packets recorded under c.
func (s *TrafficStats) Count(c Category) uint64 {
	if c < 0 || c >= numCategories {
		return 0
	}
	return s.counts[c]
}

// Counts returns the per-category counts in display order.
func (s *TrafficStats) Counts() []CategoryCount {
	out := make([]CategoryCount, 0, numCategories)
	for _, c := range Categories {
		out = append(out, CategoryCount{Category: c, Count: s.counts[c]})
	}
	return out
}

// Throughput returns the average packet rate over elapsedSeconds:
// total / elapsedSeconds. This is a cumulative average since the session
// started, so it reacts slowly to bursts; see Rate for a recent-rate value.
func (s *TrafficStats) Throughput(elapsedSeconds float64) float64 {
	if elapsedSeconds < minElapsed {
		elapsedSeconds = minElapsed
	}
	return float64(s.total) / elapsedSeconds
}

// Rate returns packets per second and bits per second since the previous
// call and starts a new window at now.
func (s *TrafficStats) Rate(now time.Time) (pps float64, bps float64) {
	duration := now.Sub(s.lastTick).Seconds()
	if duration <= 0 {
		return 0, 0
	}

	pps = float64(s.windowPackets) / duration
	bps = float64(s.windowBytes) * 8 / duration

	s.windowBytes = 0
	s.windowPackets = 0
	s.lastTick = now

	return pps, bps
}
