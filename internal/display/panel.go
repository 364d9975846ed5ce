package display

import (
	"fmt"
	"io"
	"strings"

	"pcdash/internal/models"

	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 60

var (
	panelColors = map[models.Metric]lipgloss.Color{
		models.CPU:      lipgloss.Color("39"),
		models.GPU:      lipgloss.Color("171"),
		models.Memory:   lipgloss.Color("214"),
		models.Download: lipgloss.Color("42"),
		models.Upload:   lipgloss.Color("203"),
	}

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Header returns the panel title line for metric, e.g. the CPU model and
// core counts, or "Network Speed (wlan0)".
func Header(metric models.Metric, status models.DashboardStatus) string {
	switch metric {
	case models.CPU:
		return fmt.Sprintf("%s (%d cores, %d threads)", status.CPU.ModelName, status.CPU.Cores, status.CPU.LogicalCores)
	case models.GPU:
		if status.GPU == nil {
			return "No GPU detected"
		}
		return status.GPU.Name
	case models.Memory:
		return fmt.Sprintf("Total Memory: %.2f GB", status.Memory.TotalGB)
	case models.Download, models.Upload:
		return fmt.Sprintf("Network Speed (%s)", status.Network.Interface)
	}
	return metric.Title()
}

// Panel draws one metric's window: header, readout, sparkline and axis label.
// Percentage panels use a fixed 0-100 scale; rate panels auto-scale.
func Panel(view models.WindowView, header, readout string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	cfg := SparklineConfig{
		Data:  view.Values,
		Width: width,
		Color: panelColors[view.Metric],
	}
	if view.Metric.IsPercent() {
		cfg.Min, cfg.Max = 0, 100
	}

	lines := []string{
		headerStyle.Render(header),
		readout,
		Sparkline(cfg),
		dimStyle.Render(axis(view, width)),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// axis places the lookback label left and "now" right under the chart.
func axis(view models.WindowView, width int) string {
	left := fmt.Sprintf("-%ds", view.LookbackSeconds)
	right := "now"
	gap := width - len(left) - len(right)
	if gap < 1 {
		return view.AxisLabel
	}
	label := view.AxisLabel
	if len(label)+2 <= gap {
		pad := (gap - len(label)) / 2
		return left + strings.Repeat(" ", pad) + label + strings.Repeat(" ", gap-pad-len(label)) + right
	}
	return left + strings.Repeat(" ", gap) + right
}

// Dashboard draws every view in order followed by the alert status lines.
func Dashboard(status models.DashboardStatus, views []models.WindowView, width int) string {
	readouts := make(map[models.Metric]string, len(status.Samples))
	for _, s := range status.Samples {
		readouts[s.Metric] = s.Readout
	}

	blocks := make([]string, 0, len(views)+1)
	for _, v := range views {
		blocks = append(blocks, Panel(v, Header(v.Metric, status), readouts[v.Metric], width))
	}

	var alerts []string
	for _, a := range status.Alerts {
		line := a.Text
		if a.Phase == models.AlertCoolingDown {
			line = alertStyle.Render(line + " (alerting)")
		}
		alerts = append(alerts, line)
	}
	if len(alerts) > 0 {
		blocks = append(blocks, strings.Join(alerts, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// Console redraws the whole dashboard in place on a terminal.
type Console struct {
	Out   io.Writer
	Width int
}

// Draw clears the screen and writes the dashboard.
func (c Console) Draw(status models.DashboardStatus, views []models.WindowView) error {
	_, err := fmt.Fprint(c.Out, "\x1b[H\x1b[2J"+Dashboard(status, views, c.Width)+"\n")
	return err
}
