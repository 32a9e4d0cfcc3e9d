package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatsEntry holds the formatted presale figures for the live view. The
// command layer does the unit conversion; this model only renders.
type StatsEntry struct {
	Raised    string
	Sold      string
	Remaining string
	Buyers    string
	UnitPrice string
	Stale     string // non-empty when showing a retained snapshot after a failed round
}

// dashboardModel is the Bubble Tea model for the live presale dashboard.
type dashboardModel struct {
	entry      *StatsEntry
	lastUpdate time.Time
	interval   time.Duration
	quitting   bool
	fetcher    func() (StatsEntry, error)
	err        string
}

type tickMsg time.Time
type statsFetchedMsg StatsEntry
type statsErrorMsg string

// NewDashboard creates a Bubble Tea program for the live presale dashboard.
func NewDashboard(interval time.Duration, fetcher func() (StatsEntry, error)) *tea.Program {
	m := dashboardModel{
		interval: interval,
		fetcher:  fetcher,
	}
	return tea.NewProgram(m)
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tick(m.interval))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tick(m.interval))

	case statsFetchedMsg:
		e := StatsEntry(msg)
		m.entry = &e
		m.lastUpdate = time.Now()
		m.err = ""

	case statsErrorMsg:
		m.err = string(msg)
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚡ CROWW Presale Live") + "\n")
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Updated: %s · q to quit\n\n", m.lastUpdate.Format("15:04:05"))))

	if m.err != "" {
		sb.WriteString(Err(m.err) + "\n")
	}

	if m.entry == nil {
		sb.WriteString(StyleMeta.Render("Loading...") + "\n")
		return sb.String()
	}

	sb.WriteString(KeyValueBlock("", [][2]string{
		{"Total raised", m.entry.Raised},
		{"Tokens sold", m.entry.Sold},
		{"Remaining", m.entry.Remaining},
		{"Buyers", m.entry.Buyers},
		{"Price", m.entry.UnitPrice},
	}))
	sb.WriteString("\n")

	if m.entry.Stale != "" {
		sb.WriteString(Warn(m.entry.Stale) + "\n")
	}

	return sb.String()
}

func (m dashboardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		entry, err := m.fetcher()
		if err != nil {
			return statsErrorMsg(err.Error())
		}
		return statsFetchedMsg(entry)
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
