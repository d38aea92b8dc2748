package scheduler

import (
	"time"

	"netradar/internal/analysis"
)

// Summary is the session aggregate reported after the loop stops.
type Summary struct {
	Interface  string
	Started    time.Time
	Duration   time.Duration
	Total      uint64
	TotalBytes uint64
	Dropped    uint64
	Throughput float64
	Counts     []analysis.CategoryCount
	Alerts     []analysis.Alert
	AlertsSeen uint64
}

// Summary returns the session totals. Call it after Run has returned.
func (s *Scheduler) Summary() Summary {
	end := s.end
	if end.IsZero() {
		end = s.clock()
	}
	d := end.Sub(s.start)
	return Summary{
		Interface:  s.iface,
		Started:    s.start,
		Duration:   d,
		Total:      s.stats.Total(),
		TotalBytes: s.stats.TotalBytes(),
		Dropped:    s.lastDropped,
		Throughput: s.stats.Throughput(d.Seconds()),
		Counts:     s.stats.Counts(),
		Alerts:     s.detector.RecentAlerts(-1),
		AlertsSeen: s.detector.Total(),
	}
}
