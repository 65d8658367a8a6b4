// Package tui provides a Bubble Tea TUI for browsing parsed bundles.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/paws/internal/bundle"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	sourceStyles = map[bundle.Source]lipgloss.Style{
		bundle.SourceCats:      lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		bundle.SourceDogs:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		bundle.SourceHeuristic: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}

	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	// Selected row in the Files list
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// previewLines caps how much of a file an expanded row shows.
const previewLines = 200

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabFiles
	tabIssues
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Files", "Issues"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	result    *bundle.ParseResult
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	// Files tab: cursor position and expanded set
	cursor   int
	expanded map[int]bool
}

// New creates a new TUI model for a parsed bundle and its source filename.
func New(res *bundle.ParseResult, filename string) Model {
	return Model{
		result:   res,
		filename: filepath.Base(filename),
		expanded: make(map[int]bool),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "up", "k":
			if m.activeTab == tabFiles && m.cursor > 0 {
				m.cursor--
				m.rebuildFilesViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabFiles && m.cursor < len(m.result.Records)-1 {
				m.cursor++
				m.rebuildFilesViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabFiles && len(m.result.Records) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuildFilesViewport()
				return m, nil
			}
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  paws  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == tabIssues {
			label = fmt.Sprintf(" %d %s (%d) ", i+1, tabNames[i], m.issueCount())
		}
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	if m.activeTab == tabFiles {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildFilesViewport() {
	if m.ready {
		m.viewports[tabFiles].SetContent(m.renderTab(tabFiles))
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabFiles:
		return m.renderFiles()
	case tabIssues:
		return m.renderIssues()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) issueCount() int {
	return len(m.result.Failures) + len(m.result.Warnings)
}

func (m *Model) renderSummary() string {
	res := m.result
	var sb strings.Builder
	sb.WriteString(heading("Bundle"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	kind := res.Format.Kind
	if kind == "" {
		kind = "(no header)"
	}
	row("Kind:", kind)
	row("Format:", res.Format.Description)
	row("Mode:", res.Format.Mode.String())

	counts := map[bundle.Source]int{}
	var total int
	for _, r := range res.Records {
		counts[r.Source]++
		total += len(r.Content)
	}

	sb.WriteString(heading("Counts"))
	row("Files:", fmt.Sprintf("%d", len(res.Records)))
	row("Total bytes:", fmt.Sprintf("%d", total))
	row("Failures:", fmt.Sprintf("%d", len(res.Failures)))
	row("Warnings:", fmt.Sprintf("%d", len(res.Warnings)))

	sb.WriteString(heading("Sources"))
	for _, src := range []bundle.Source{bundle.SourceCats, bundle.SourceDogs, bundle.SourceHeuristic} {
		if counts[src] > 0 {
			sb.WriteString(bullet(fmt.Sprintf("%s  %d", sourceStyles[src].Render(string(src)), counts[src])))
		}
	}
	if len(res.Records) == 0 {
		sb.WriteString(dimStyle.Render("  (no files found)") + "\n")
	}
	return sb.String()
}

func (m *Model) renderFiles() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Files (%d)", len(m.result.Records))))
	if len(m.result.Records) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, r := range m.result.Records {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		badge := sourceStyles[r.Source].Render(fmt.Sprintf("%-9s", r.Source))
		meta := dimStyle.Render(fmt.Sprintf("%d bytes, line %d", len(r.Content), r.Line))
		if r.Forced {
			meta += warnStyle.Render("  unterminated")
		}
		row := fmt.Sprintf("%s%s  %s  %s", toggle, badge, r.Path, meta)
		if i == m.cursor {
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expanded[i] {
			sb.WriteString(renderPreview(r.Content, m.width))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderPreview shows text content between rules, or a byte count for
// binary content.
func renderPreview(content []byte, width int) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", max(width-4, 1)))
	sb.WriteString(border + "\n")
	if !utf8.Valid(content) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  (binary content, %d bytes)", len(content))) + "\n")
	} else {
		lines := strings.Split(string(content), "\n")
		more := 0
		if len(lines) > previewLines {
			more = len(lines) - previewLines
			lines = lines[:previewLines]
		}
		for _, l := range lines {
			sb.WriteString("    " + l + "\n")
		}
		if more > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more lines", more)) + "\n")
		}
	}
	sb.WriteString(border + "\n")
	return sb.String()
}

func (m *Model) renderIssues() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Issues (%d)", m.issueCount())))
	if m.issueCount() == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, f := range m.result.Failures {
		sb.WriteString(errorStyle.Render("  ERROR") + "  " + f.Error() + "\n")
	}
	for _, w := range m.result.Warnings {
		sb.WriteString(warnStyle.Render("  WARN ") + "  " + w + "\n")
	}
	return sb.String()
}

// Run starts the TUI for the given parse result.
func Run(res *bundle.ParseResult, filename string) error {
	p := tea.NewProgram(New(res, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
