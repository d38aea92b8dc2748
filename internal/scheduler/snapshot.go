package scheduler

import (
	"time"

	"netradar/internal/analysis"
	"netradar/internal/models"
)

// ViewMode selects which main panel the display shows.
type ViewMode int

const (
	ViewPackets ViewMode = iota
	ViewStatistics
)

func (v ViewMode) String() string {
	if v == ViewStatistics {
		return "statistics"
	}
	return "packets"
}

// Row is one line of the packet list.
type Row struct {
	Index    int // position in the visible window
	Seq      uint64
	Elapsed  time.Duration // capture time relative to session start
	Source   string
	Dest     string
	Category analysis.Category
	Summary  string
	Selected bool
}

// Detail describes the packet being inspected.
type Detail struct {
	Row
	Event      models.PacketEvent
	SrcCountry string
	DstCountry string
}

// HelpEntry is one key binding shown in the footer.
type HelpEntry struct {
	Key    string
	Action string
}

// Snapshot is everything the display needs for one frame. A new Snapshot is
// built on every tick and none of its slices are shared with the pipeline.
type Snapshot struct {
	Interface  string
	Running    bool
	State      State
	View       ViewMode
	Elapsed    time.Duration
	Throughput float64 // cumulative average packets/s
	RecentPPS  float64 // packets/s over the last tick
	RecentBPS  float64 // bits/s over the last tick
	Total      uint64
	TotalBytes uint64
	Dropped    uint64
	Counts     []analysis.CategoryCount
	Alerts     []analysis.Alert // newest last
	AlertsSeen uint64
	Rows       []Row
	Inspect    *Detail
	Help       []HelpEntry
}

// recentAlerts is how many alerts a snapshot carries.
const recentAlerts = 5

// Help is the static key reference shown in the footer.
var Help = []HelpEntry{
	{Key: "↑/↓", Action: "Navigate packets"},
	{Key: "g/G", Action: "First/last packet"},
	{Key: "ENTER", Action: "Inspect packet"},
	{Key: "TAB", Action: "Switch view"},
	{Key: "Q/ESC", Action: "Quit"},
}
