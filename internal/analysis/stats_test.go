package analysis

import (
	"testing"
	"time"

	"netradar/internal/models"

	"github.com/stretchr/testify/assert"
)

func sumCounts(s *TrafficStats) uint64 {
	var sum uint64
	for _, c := range s.Counts() {
		sum += c.Count
	}
	return sum
}

func TestTrafficStats_TotalMatchesCategorySum(t *testing.T) {
	s := NewTrafficStats(time.Now())
	for i := 0; i < 100; i++ {
		s.Record(Categories[i%len(Categories)])
		assert.Equal(t, s.Total(), sumCounts(s))
	}
	assert.Equal(t, uint64(20), s.Count(CategoryDNS))
}

func TestTrafficStats_OutOfRangeCategoryCountsAsOther(t *testing.T) {
	s := NewTrafficStats(time.Now())
	s.Record(Category(99))
	assert.Equal(t, uint64(1), s.Count(CategoryOther))
	assert.Zero(t, s.Count(Category(99)))
}

func TestTrafficStats_Throughput(t *testing.T) {
	s := NewTrafficStats(time.Now())
	for i := 0; i < 50; i++ {
		s.Record(CategoryTCP)
	}
	assert.Equal(t, 5.0, s.Throughput(10))
}

func TestTrafficStats_ThroughputFloorsElapsed(t *testing.T) {
	s := NewTrafficStats(time.Now())
	s.Record(CategoryUDP)

	got := s.Throughput(0)
	assert.Equal(t, 1/minElapsed, got)
	assert.Equal(t, got, s.Throughput(-5))
}

func TestTrafficStats_RateResetsWindow(t *testing.T) {
	start := time.Unix(1000, 0)
	s := NewTrafficStats(start)
	for i := 0; i < 10; i++ {
		s.RecordEvent(models.PacketEvent{Length: 100}, CategoryTCP)
	}

	pps, bps := s.Rate(start.Add(2 * time.Second))
	assert.Equal(t, 5.0, pps)
	assert.Equal(t, 4000.0, bps)
	assert.Equal(t, uint64(1000), s.TotalBytes())

	pps, bps = s.Rate(start.Add(3 * time.Second))
	assert.Zero(t, pps)
	assert.Zero(t, bps)

	pps, _ = s.Rate(start.Add(3 * time.Second))
	assert.Zero(t, pps, "zero-length window")
}
