package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SinkRow is one sink's delivery counters for the dashboard table.
type SinkRow struct {
	Name      string
	Delivered int64
	Failed    int64
	Dropped   int64
}

// DashboardData is everything the live dashboard renders. The CLI maps
// daemon status responses into it so this package stays free of control
// plane types.
type DashboardData struct {
	Pattern   string
	Since     time.Duration
	Duration  time.Duration
	Remaining time.Duration
	BaseRate  float64
	Samples   int64
	P50       int64
	P95       int64
	P99       int64
	Sinks     []SinkRow
}

// StatusProvider fetches fresh dashboard data, typically over the
// daemon's control socket.
type StatusProvider func() (DashboardData, error)

type refreshMsg struct {
	data DashboardData
	err  error
}

// Dashboard is the bubbletea model behind `faultline status --watch`.
type Dashboard struct {
	provider StatusProvider
	spinner  spinner.Model
	data     DashboardData
	err      error
	ready    bool
}

// NewDashboard creates a dashboard fed by the given provider.
func NewDashboard(provider StatusProvider) Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Amber)

	return Dashboard{
		provider: provider,
		spinner:  sp,
	}
}

func (d Dashboard) refresh() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		data, err := d.provider()
		return refreshMsg{data: data, err: err}
	})
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, func() tea.Msg {
		data, err := d.provider()
		return refreshMsg{data: data, err: err}
	})
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return d, tea.Quit
		}

	case refreshMsg:
		d.data = msg.data
		d.err = msg.err
		d.ready = true
		return d, d.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	}

	return d, nil
}

func (d Dashboard) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + TitleStyle.Render(" faultline "))
	b.WriteString("  " + d.spinner.View() + DimStyle.Render(" watching"))
	b.WriteString("\n\n")

	if d.err != nil {
		b.WriteString("  " + ErrorStyle.Render(CrossMark+" daemon unreachable: "+d.err.Error()) + "\n")
		b.WriteString("  " + DimStyle.Render("press q to quit") + "\n")
		return b.String()
	}
	if !d.ready {
		b.WriteString("  " + DimStyle.Render("connecting...") + "\n")
		return b.String()
	}

	var content strings.Builder

	content.WriteString(SubtitleStyle.Render("Pattern"))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  %s  %s\n",
		PatternBadge(d.data.Pattern),
		DimStyle.Render("for "+d.data.Since.Round(time.Second).String()),
	))
	if d.data.Duration > 0 {
		elapsed := 1.0 - d.data.Remaining.Seconds()/d.data.Duration.Seconds()
		content.WriteString(fmt.Sprintf("  %s %s left\n",
			ProgressBar(elapsed, 24),
			ValueStyle.Render(d.data.Remaining.Round(time.Second).String()),
		))
	}
	content.WriteString("\n")

	content.WriteString(SubtitleStyle.Render("Traffic"))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  Base rate:  %s\n", ValueStyle.Render(fmt.Sprintf("%.2f req/s", d.data.BaseRate))))
	content.WriteString(fmt.Sprintf("  Samples:    %s\n", ValueStyle.Render(fmt.Sprintf("%d", d.data.Samples))))
	content.WriteString(fmt.Sprintf("  Latency:    %s\n",
		ValueStyle.Render(fmt.Sprintf("p50 %dms | p95 %dms | p99 %dms", d.data.P50, d.data.P95, d.data.P99))))
	content.WriteString("\n")

	content.WriteString(SubtitleStyle.Render("Sinks"))
	content.WriteString("\n")
	for _, s := range d.data.Sinks {
		marker := SuccessStyle.Render(CheckMark)
		if s.Failed > 0 {
			marker = ErrorStyle.Render(CrossMark)
		}
		content.WriteString(fmt.Sprintf("  %s %-10s delivered %-8d failed %-6d dropped %d\n",
			marker, s.Name, s.Delivered, s.Failed, s.Dropped))
	}

	b.WriteString(BorderStyle.Width(56).Render(content.String()))
	b.WriteString("\n")
	b.WriteString("  " + DimStyle.Render("press q to quit") + "\n")

	return b.String()
}
