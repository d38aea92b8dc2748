// Package reporting produces the end-of-session summary: a table printed to
// the terminal after the dashboard closes and an optional HTML report.
package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"netradar/internal/scheduler"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// WriteSummary prints the session totals as a per-category table.
func WriteSummary(w io.Writer, sessionID string, s scheduler.Summary) error {
	rows := make([][]string, 0, len(s.Counts))
	for _, c := range s.Counts {
		rows = append(rows, []string{c.Category.String(), fmt.Sprint(c.Count), share(c.Count, s.Total)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("PROTOCOL", "PACKETS", "SHARE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0:
				return numberStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n%s  %s\n%s  %s\n%s  %s\n%s  %s\n%s  %.2f pkts/s\n%s  %d\n%s  %d\n",
		titleStyle.Render("Session "+sessionID),
		t.String(),
		titleStyle.Render("Source:      "), orDash(s.Interface),
		titleStyle.Render("Duration:    "), s.Duration.Truncate(time.Millisecond),
		titleStyle.Render("Packets:     "), fmt.Sprint(s.Total),
		titleStyle.Render("Data:        "), formatBytes(s.TotalBytes),
		titleStyle.Render("Average rate:"), s.Throughput,
		titleStyle.Render("Dropped:     "), s.Dropped,
		titleStyle.Render("Alerts:      "), s.AlertsSeen,
	)
	return err
}

// GenerateSessionReport writes a report of the session into dir and returns
// the file name. Currently supports "html" format.
func GenerateSessionReport(dir, sessionID string, s scheduler.Summary, format string) (string, error) {
	if format != "html" {
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	name := "netradar_" + s.Started.Format("20060102_150405")
	if sessionID != "" {
		name += "_" + sessionID
	}
	filename := filepath.Join(dir, name+".html")

	type alertRow struct {
		Time    string
		Type    string
		Source  string
		Message string
	}
	type categoryRow struct {
		Name  string
		Count uint64
		Share string
	}
	data := struct {
		SessionID  string
		Source     string
		Started    string
		Duration   time.Duration
		Total      uint64
		Data       string
		Throughput string
		Dropped    uint64
		Categories []categoryRow
		Alerts     []alertRow
	}{
		SessionID:  sessionID,
		Source:     orDash(s.Interface),
		Started:    s.Started.Format(time.RFC1123),
		Duration:   s.Duration.Truncate(time.Millisecond),
		Total:      s.Total,
		Data:       formatBytes(s.TotalBytes),
		Throughput: fmt.Sprintf("%.2f", s.Throughput),
		Dropped:    s.Dropped,
	}
	for _, c := range s.Counts {
		data.Categories = append(data.Categories, categoryRow{c.Category.String(), c.Count, share(c.Count, s.Total)})
	}

	for _, a := range s.Alerts {
		data.Alerts = append(data.Alerts, alertRow{a.Timestamp.Format("15:04:05"), string(a.Type), a.Source, a.Message})
	}

	// Rendered in memory first; a failed render writes nothing.
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", filename, err)
	}
	return filename, nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>netradar Session Report - {{.SessionID}}</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .alert { color: #d9534f; font-weight: bold; }
    </style>
</head>
<body>
    <h1>netradar Session Report</h1>
    <div class="summary">
        <p><strong>Session:</strong> {{.SessionID}}</p>
        <p><strong>Source:</strong> {{.Source}}</p>
        <p><strong>Started:</strong> {{.Started}}</p>
        <p><strong>Duration:</strong> {{.Duration}}</p>
        <p><strong>Total Packets:</strong> {{.Total}}</p>
        <p><strong>Total Data Transferred:</strong> {{.Data}}</p>
        <p><strong>Average Rate:</strong> {{.Throughput}} pkts/s</p>
        <p><strong>Dropped Events:</strong> {{.Dropped}}</p>
    </div>

    <h2>Protocol Breakdown</h2>
    <table>
        <thead>
            <tr>
                <th>Protocol</th>
                <th>Packets</th>
                <th>Share</th>
            </tr>
        </thead>
        <tbody>
{{- range .Categories}}
            <tr><td>{{.Name}}</td><td>{{.Count}}</td><td>{{.Share}}</td></tr>
{{- end}}
        </tbody>
    </table>

    <h2>Traffic Alerts</h2>
    <table>
        <thead>
            <tr>
                <th>Time</th>
                <th>Type</th>
                <th>Source</th>
                <th>Message</th>
            </tr>
        </thead>
        <tbody>
{{- range .Alerts}}
            <tr><td>{{.Time}}</td><td class="alert">{{.Type}}</td><td>{{.Source}}</td><td>{{.Message}}</td></tr>
{{- else}}
            <tr><td colspan="4">No alerts triggered during this session.</td></tr>
{{- end}}
        </tbody>
    </table>
</body>
</html>
`))

func share(n, total uint64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
