package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"netradar/internal/scheduler"
)

const (
	defaultWidth  = 120
	barWidth      = 14
	spectrumWidth = 36
	minSummary    = 12
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00f3ff")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff00"))
	labelStyle      = lipgloss.NewStyle().Bold(true)
	activeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff00"))
	standbyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff003c"))
	rateStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff000"))
	countStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d7d7"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	keyStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

func (m Model) View() string {
	if !m.ready {
		return titleStyle.Render("NETRADAR") + "\n\n" + dimStyle.Render("Waiting for capture...") + "\n"
	}

	var main string
	switch m.snap.View {
	case scheduler.ViewStatistics:
		main = infoStyle.Render(m.statisticsView())
	default:
		packets := infoStyle.Render(panelTitleStyle.Render("PACKETS") + "\n" + m.table.View())
		spectrum := infoStyle.Render(panelTitleStyle.Render("PROTOCOL SPECTRUM") + "\n" + m.spectrumView())
		main = lipgloss.JoinHorizontal(lipgloss.Top, packets, spectrum)
	}

	sections := []string{m.headerView(), main}
	if m.snap.Inspect != nil {
		sections = append(sections, infoStyle.Render(inspectView(m.snap.Inspect)))
	}
	sections = append(sections, footerView(m.snap.Help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	s := m.snap

	iface := s.Interface
	if iface == "" {
		iface = "-"
	}
	title := titleStyle.Render("NETRADAR ▸ " + iface)

	status := standbyStyle.Render("STANDBY")
	if s.Running {
		status = activeStyle.Render("ACTIVE")
	}

	parts := []string{
		labelStyle.Render("STATUS: ") + status,
		labelStyle.Render("THROUGHPUT: ") + rateStyle.Render(fmt.Sprintf("%.1f pkts/s", s.Throughput)),
		labelStyle.Render("NOW: ") + fmt.Sprintf("%.1f pps, %s", s.RecentPPS, formatBps(s.RecentBPS)),
		labelStyle.Render("UP: ") + formatUptime(s.Elapsed),
	}
	if s.Dropped > 0 {
		parts = append(parts, standbyStyle.Render(fmt.Sprintf("DROPPED: %d", s.Dropped)))
	}
	if s.AlertsSeen > 0 {
		parts = append(parts, rateStyle.Render(fmt.Sprintf("ALERTS: %d", s.AlertsSeen)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(parts, dimStyle.Render(" | ")))
}

// spectrumView draws one bar per category, scaled to the largest count.
func (m Model) spectrumView() string {
	var peak uint64
	for _, c := range m.snap.Counts {
		peak = max(peak, c.Count)
	}

	var b strings.Builder
	for i, c := range m.snap.Counts {
		pct := 0.0
		if peak > 0 {
			pct = float64(c.Count) / float64(peak)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s %s",
			labelStyle.Render(fmt.Sprintf("%-5s", c.Category)),
			m.bar.ViewAs(pct),
			countStyle.Render(fmt.Sprint(c.Count)))
	}
	return b.String()
}

func (m Model) statisticsView() string {
	s := m.snap

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("STATISTICS") + "\n\n")
	for _, c := range s.Counts {
		share := 0.0
		if s.Total > 0 {
			share = float64(c.Count) / float64(s.Total)
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-5s", c.Category)),
			m.bar.ViewAs(share),
			countStyle.Render(fmt.Sprintf("%10d", c.Count)),
			fmt.Sprintf("%5.1f%%", share*100))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Total packets:"), s.Total)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total data:   "), formatBytes(s.TotalBytes))
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Dropped:      "), s.Dropped)
	fmt.Fprintf(&b, "%s %.2f pkts/s (since start)\n", labelStyle.Render("Average rate: "), s.Throughput)
	fmt.Fprintf(&b, "%s %.1f pps, %s\n", labelStyle.Render("Recent rate:  "), s.RecentPPS, formatBps(s.RecentBPS))
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Uptime:       "), formatUptime(s.Elapsed))

	if len(s.Alerts) > 0 {
		b.WriteString("\n\n" + panelTitleStyle.Render(fmt.Sprintf("ALERTS (%d)", s.AlertsSeen)))
		for _, a := range s.Alerts {
			fmt.Fprintf(&b, "\n%s %s %s",
				dimStyle.Render(a.Timestamp.Format("15:04:05")),
				standbyStyle.Render(string(a.Type)),
				a.Message)
		}
	}
	return b.String()
}

func inspectView(d *scheduler.Detail) string {
	ev := d.Event

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(fmt.Sprintf("PACKET #%d", d.Seq)) + "\n")
	fmt.Fprintf(&b, "%s +%s\n", labelStyle.Render("Time:       "), formatElapsed(d.Elapsed))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Source:     "), endpoint(ev.SrcAddr, ev.SrcPort, d.SrcCountry))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Destination:"), endpoint(ev.DstAddr, ev.DstPort, d.DstCountry))
	fmt.Fprintf(&b, "%s %s (layers %s)\n", labelStyle.Render("Protocol:   "), d.Category, ev.Layers)
	fmt.Fprintf(&b, "%s %d bytes\n", labelStyle.Render("Length:     "), ev.Length)
	fmt.Fprintf(&b, "%s %s", labelStyle.Render("Summary:    "), ev.Summary)
	return b.String()
}

func footerView(help []scheduler.HelpEntry) string {
	parts := make([]string, len(help))
	for i, h := range help {
		parts[i] = keyStyle.Render(h.Key) + " " + dimStyle.Render(h.Action)
	}
	return strings.Join(parts, dimStyle.Render("  •  "))
}

// columns sizes the packet table so it fits next to the spectrum panel.
func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "#", Width: 7},
		{Title: "Time", Width: 9},
		{Title: "Source", Width: 18},
		{Title: "Destination", Width: 18},
		{Title: "Proto", Width: 5},
		{Title: "Summary", Width: minSummary},
	}

	// Every cell carries one column of padding on each side; the panel adds
	// a border and padding.
	used := spectrumWidth + 4
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 2
	}
	if rest := width - used - 2; rest > minSummary {
		cols[len(cols)-1].Width = rest
	}
	return cols
}

func endpoint(addr string, port int, country string) string {
	s := orDash(addr)
	if port != 0 {
		if strings.Contains(s, ":") {
			s = "[" + s + "]"
		}
		s = fmt.Sprintf("%s:%d", s, port)
	}
	if country != "" {
		s += " (" + country + ")"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatBps(bps float64) string {
	if bps >= 1e6 {
		return fmt.Sprintf("%.2f Mbps", bps/1e6)
	}
	if bps >= 1e3 {
		return fmt.Sprintf("%.2f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.2f bps", bps)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
