// Package tui renders a live terminal view of a running simulation.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/eminamitani/MD-edamame/internal/storage"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 120

// Series selects which observable the monitor plots.
type Series int

const (
	SeriesTemperature Series = iota
	SeriesPotential
	SeriesTotal
	seriesCount
)

func (s Series) String() string {
	switch s {
	case SeriesPotential:
		return "potential"
	case SeriesTotal:
		return "total energy"
	default:
		return "temperature"
	}
}

func (s Series) pick(r storage.ThermoRecord) float64 {
	switch s {
	case SeriesPotential:
		return r.Potential
	case SeriesTotal:
		return r.Total
	default:
		return r.Temperature
	}
}

type recordMsg storage.ThermoRecord

type doneMsg struct{}

func waitForRecord(ch <-chan storage.ThermoRecord) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return recordMsg(r)
	}
}

// Monitor is a bubbletea model that follows a stream of thermo samples.
type Monitor struct {
	title   string
	records <-chan storage.ThermoRecord

	last    storage.ThermoRecord
	seen    int
	kinds   map[string]int
	history []storage.ThermoRecord
	series  Series
	frozen  bool
	done    bool

	width  int
	height int
}

// NewMonitor follows records until the channel is closed.
func NewMonitor(title string, records <-chan storage.ThermoRecord) *Monitor {
	return &Monitor{
		title:   title,
		records: records,
		kinds:   make(map[string]int),
		history: make([]storage.ThermoRecord, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m *Monitor) Init() tea.Cmd { return waitForRecord(m.records) }

func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.series = (m.series + 1) % seriesCount
		case " ", "p":
			m.frozen = !m.frozen
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case recordMsg:
		m.observe(storage.ThermoRecord(msg))
		return m, waitForRecord(m.records)
	case doneMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m *Monitor) observe(r storage.ThermoRecord) {
	m.seen++
	m.kinds[r.Kind]++
	m.last = r
	if m.frozen {
		return
	}
	if len(m.history) == historyLen {
		m.history = m.history[1:]
	}
	m.history = append(m.history, r)
}

// Seen is the number of samples received so far.
func (m *Monitor) Seen() int { return m.seen }

// Done reports whether the record stream has closed.
func (m *Monitor) Done() bool { return m.done }

func (m *Monitor) View() string {
	var b strings.Builder

	status := green.Render("running")
	switch {
	case m.done:
		status = cyan.Render("finished")
	case m.frozen:
		status = yellow.Render("frozen")
	}
	b.WriteString(white.Bold(true).Render(m.title) + "  " + status + "\n\n")

	if m.seen == 0 {
		b.WriteString(dim.Render("  waiting for samples...") + "\n")
		b.WriteString("\n" + dim.Render("  q quit") + "\n")
		return b.String()
	}

	r := m.last
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		dim.Render("segment"), white.Render(fmt.Sprint(r.Segment)),
		dim.Render("step"), white.Render(fmt.Sprint(r.Step)),
		dim.Render("time"), white.Render(fmt.Sprintf("%.4g", r.Time))))
	b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
		dim.Render("T"), magenta.Render(fmt.Sprintf("%.4f", r.Temperature)),
		dim.Render("target"), magenta.Render(fmt.Sprintf("%.4f", r.Target))))
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n\n",
		dim.Render("KE"), cyan.Render(fmt.Sprintf("%.5g", r.Kinetic)),
		dim.Render("PE"), cyan.Render(fmt.Sprintf("%.5g", r.Potential)),
		dim.Render("E"), cyan.Render(fmt.Sprintf("%.5g", r.Total))))

	if len(m.history) > 1 {
		data := make([]float64, len(m.history))
		for i, h := range m.history {
			data[i] = m.series.pick(h)
		}
		plotWidth := max(m.width-12, 20)
		b.WriteString(asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(m.series.String())))
		b.WriteString("\n\n")
	}

	b.WriteString("  " + dim.Render(m.kindSummary()) + "\n\n")
	b.WriteString(dim.Render("  tab series · space freeze · q quit") + "\n")
	return b.String()
}

func (m *Monitor) kindSummary() string {
	parts := []string{fmt.Sprintf("%d samples", m.seen)}
	for _, k := range []string{"stride", "dense", "anchor", "burst"} {
		if n := m.kinds[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", k, n))
		}
	}
	return strings.Join(parts, " · ")
}

// Run blocks until the user quits.
func Run(m *Monitor) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
