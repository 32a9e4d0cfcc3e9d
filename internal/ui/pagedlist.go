package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/engineerpawangupta/crowsale/internal/pager"
)

// ListRow is one interactive table row: the rendered cells plus the data
// needed for the open/copy actions.
type ListRow struct {
	Cells       Row
	FullValue   string // full 0x... hash or address (for copy)
	ExplorerURL string // e.g. https://sepolia.etherscan.io/tx/0x...
}

// Scope is one selectable filter tab of a paged list, e.g. "all transfers"
// versus one wallet's. The list starts on the scope matching the pager's
// initial filter and the s key cycles through the rest.
type Scope struct {
	Label  string
	Filter string
}

// pagedListModel is the bubbletea model for a cursor-paged table backed by
// a pager.Pager. Next/Previous fetch pages lazily; rows are never merged
// across pages.
type pagedListModel struct {
	title    string
	columns  []Column
	pg       *pager.Pager[ListRow]
	scopes   []Scope
	scopeIdx int
	cursor   int
	page     int // 1-based, for the footer
	loading  bool
	flash    string
	err      string
}

type pageLoadedMsg struct{ page int }
type pageErrMsg string

func (m pagedListModel) Init() tea.Cmd {
	return m.navigate(1, m.pg.Load)
}

func (m pagedListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.pg.Current().Items)-1 {
				m.cursor++
			}

		case "n", "right":
			if m.loading || !m.pg.Current().HasNext {
				break
			}
			m.loading = true
			return m, m.navigate(m.page+1, m.pg.Next)

		case "p", "left":
			if m.loading || m.page <= 1 {
				break
			}
			m.loading = true
			return m, m.navigate(m.page-1, m.pg.Previous)

		case "s":
			if m.loading || len(m.scopes) < 2 {
				break
			}
			m.scopeIdx = (m.scopeIdx + 1) % len(m.scopes)
			filter := m.scopes[m.scopeIdx].Filter
			m.loading = true
			return m, m.navigate(1, func(ctx context.Context) error {
				return m.pg.SetFilter(ctx, filter)
			})

		case "o":
			if row, ok := m.selected(); ok {
				if row.ExplorerURL != "" {
					openBrowser(row.ExplorerURL)
					m.flash = "Opening in browser…"
				} else {
					m.flash = "No explorer URL available"
				}
			}

		case "c":
			if row, ok := m.selected(); ok {
				if row.FullValue == "" {
					m.flash = "Nothing to copy"
					break
				}
				if err := copyToClipboard(row.FullValue); err == nil {
					m.flash = "Copied: " + TruncateAddr(row.FullValue)
				} else {
					m.flash = "Copy failed: " + err.Error()
				}
			}
		}

	case pageLoadedMsg:
		m.loading = false
		m.page = msg.page
		m.cursor = 0
		m.err = ""

	case pageErrMsg:
		m.loading = false
		m.err = string(msg)
	}
	return m, nil
}

func (m pagedListModel) View() string {
	win := m.pg.Current()

	var sb strings.Builder
	sb.WriteString(m.title)
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(Err(m.err))
		sb.WriteString("\n\n")
	}

	t := NewTable(m.columns)
	for _, r := range win.Items {
		t.AddRow(r.Cells)
	}
	t.SelIdx = m.cursor
	sb.WriteString(t.Render())

	// Footer: page indicator then controls or flash.
	sb.WriteString("\n")
	status := fmt.Sprintf("page %d", m.page)
	if len(m.scopes) > 0 {
		status = m.scopes[m.scopeIdx].Label + " · " + status
	}
	if m.loading {
		status += " · loading…"
	} else if win.HasNext {
		status += " · more available"
	}
	sb.WriteString(StyleMeta.Render("  " + status))
	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(listControls(m.page > 1, win.HasNext, len(m.scopes) > 1))
	}
	sb.WriteString("\n")

	return sb.String()
}

func (m pagedListModel) selected() (ListRow, bool) {
	items := m.pg.Current().Items
	if m.cursor >= len(items) {
		return ListRow{}, false
	}
	return items[m.cursor], true
}

// navigate runs a pager move off the UI goroutine and reports the result.
func (m pagedListModel) navigate(page int, move func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := move(context.Background()); err != nil {
			return pageErrMsg(err.Error())
		}
		return pageLoadedMsg{page: page}
	}
}

// listControls renders the bottom control bar.
func listControls(hasPrev, hasNext, hasScopes bool) string {
	sep := StyleMeta.Render("   ")
	key := func(style, k, label string) string {
		s := StyleMeta
		switch style {
		case "info":
			s = StyleInfo
		case "warn":
			s = StyleWarning
		}
		return s.Render("[ "+k+" ]") + StyleMeta.Render(" "+label)
	}

	var sb strings.Builder
	sb.WriteString(key("meta", "↑↓", "navigate"))
	if hasNext {
		sb.WriteString(sep)
		sb.WriteString(key("info", "n", "next page"))
	}
	if hasPrev {
		sb.WriteString(sep)
		sb.WriteString(key("info", "p", "prev page"))
	}
	if hasScopes {
		sb.WriteString(sep)
		sb.WriteString(key("info", "s", "switch scope"))
	}
	sb.WriteString(sep)
	sb.WriteString(key("info", "o", "open in browser"))
	sb.WriteString(sep)
	sb.WriteString(key("warn", "c", "copy"))
	sb.WriteString(sep)
	sb.WriteString(key("meta", "q", "quit"))
	return sb.String()
}

// RunPagedList starts the interactive paged table. Blocks until the user
// presses q/ESC. Uses the alt screen so the terminal is restored on exit.
func RunPagedList(title string, columns []Column, pg *pager.Pager[ListRow], scopes ...Scope) error {
	m := pagedListModel{
		title:   title,
		columns: columns,
		pg:      pg,
		scopes:  scopes,
		page:    1,
	}
	for i, sc := range scopes {
		if sc.Filter == pg.Filter() {
			m.scopeIdx = i
			break
		}
	}
	p := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// openBrowser opens url in the OS default browser.
func openBrowser(url string) {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "cmd"
	default:
		name = "xdg-open"
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(name, "/c", "start", url)
	} else {
		cmd = exec.Command(name, url)
	}
	_ = cmd.Start()
}

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	default:
		// Try wl-copy (Wayland), fall back to xclip.
		if _, err := exec.LookPath("wl-copy"); err == nil {
			cmd = exec.Command("wl-copy")
		} else {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		}
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	_, _ = io.WriteString(stdin, text)
	stdin.Close()
	return cmd.Wait()
}
