// Package tui provides a Bubble Tea viewer for the change log, one page per version.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/changerec/internal/changelog"
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

	// File heading inside a version page
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Diff rendering
	diffAddStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	diffDelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// ── Messages ────────────────

// DocumentMsg replaces the displayed log with a freshly read document.
type DocumentMsg struct {
	Text string
	Err  error
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the viewer.
type Model struct {
	filename string
	entries  []changelog.Entry
	active   int
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	err      error
	watcher  *Watcher // nil unless following
}

// New creates a viewer for the log document text read from filename.
func New(doc, filename string) Model {
	return Model{
		filename: filepath.Base(filename),
		entries:  changelog.Entries(doc),
	}
}

// WithWatcher makes the model reload whenever w reports a change.
func (m Model) WithWatcher(w *Watcher) Model {
	m.watcher = w
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return m.watcher.Next()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			if m.active < len(m.entries)-1 {
				m.active++
				m.refresh(true)
			}
			return m, nil
		case "shift+tab", "h", "left":
			if m.active > 0 {
				m.active--
				m.refresh(true)
			}
			return m, nil
		case "home":
			m.active = 0
			m.refresh(true)
			return m, nil
		case "end":
			if len(m.entries) > 0 {
				m.active = len(m.entries) - 1
			}
			m.refresh(true)
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil

	case DocumentMsg:
		m.applyDocument(msg)
		var next tea.Cmd
		if m.watcher != nil {
			next = m.watcher.Next()
		}
		return m, next
	}
	return m, nil
}

// applyDocument swaps in a reloaded log. The page showing the same version
// stays selected; a newly prepended version does not steal focus.
func (m *Model) applyDocument(msg DocumentMsg) {
	if msg.Err != nil {
		m.err = msg.Err
		return
	}
	m.err = nil

	current := -1
	if m.active < len(m.entries) {
		current = m.entries[m.active].Version
	}
	m.entries = changelog.Entries(msg.Text)
	m.active = 0
	for i, e := range m.entries {
		if e.Version == current {
			m.active = i
			break
		}
	}
	m.refresh(false)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	label := "  changerec  " + m.filename
	if m.watcher != nil {
		label += "  (following)"
	}
	title := titleStyle.Width(m.width).Render(label)

	// ── Row 2: version tabs ───────────────────────────────────────────────────
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(m.renderTabs())

	// ── Row 3…N-1: scrollable content ────────────────────────────────────────
	content := m.viewport.View()

	// ── Row N: status / hint bar ──────────────────────────────────────────────
	hint := "  ←/→ version  ↑/↓ scroll  home/end newest/oldest  q quit"
	if m.err != nil {
		hint = "  " + errorStyle.Render("reload failed: "+m.err.Error())
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
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

func (m *Model) initViewport() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport = viewport.New(m.width, vpHeight)
	m.viewport.SetContent(m.renderPage())
}

func (m *Model) refresh(top bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderPage())
	if top {
		m.viewport.GotoTop()
	}
}

// renderTabs shows the versions around the active one that fit the width.
func (m *Model) renderTabs() string {
	if len(m.entries) == 0 {
		return inactiveTabStyle.Render(" no versions ")
	}

	label := func(i int) string {
		l := fmt.Sprintf(" %03d ", m.entries[i].Version)
		if i == m.active {
			return activeTabStyle.Render(l)
		}
		return inactiveTabStyle.Render(l)
	}

	lo, hi := m.active, m.active
	used := lipgloss.Width(label(m.active))
	for {
		grew := false
		if lo > 0 {
			if w := lipgloss.Width(label(lo-1)) + 1; used+w <= m.width {
				lo--
				used += w
				grew = true
			}
		}
		if hi < len(m.entries)-1 {
			if w := lipgloss.Width(label(hi+1)) + 1; used+w <= m.width {
				hi++
				used += w
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	var parts []string
	for i := lo; i <= hi; i++ {
		parts = append(parts, label(i))
		if i < hi {
			parts = append(parts, tabSepStyle.Render("│"))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// ── Page renderer ─────────────────────────────────────────────────────────────

func (m *Model) renderPage() string {
	if len(m.entries) == 0 {
		return "\n" + dimStyle.Render("  (the change log has no recorded versions yet)") + "\n"
	}
	e := m.entries[m.active]

	var sb strings.Builder
	sb.WriteString("\n" + sectionHeader.Render(fmt.Sprintf("  Version %03d", e.Version)) + "\n\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-8s", "Time:")) + "  " + timeStyle.Render(e.Time) + "\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-8s", "Files:")) + fmt.Sprintf("  %d\n", len(e.Files)))
	for _, f := range e.Files {
		sb.WriteString(bulletStyle.Render("    •") + "  " + f + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(renderBody(e.Body, m.width))
	return sb.String()
}

// renderBody styles the record's file sections. The version heading, time and
// summary lines are skipped because renderPage shows them already.
func renderBody(body string, width int) string {
	var sb strings.Builder
	inFence := false
	fenceLang := ""

	lines := strings.Split(body, "\n")
	start := len(lines)
	for i, l := range lines {
		if strings.HasPrefix(l, "### ") {
			start = i
			break
		}
	}

	for _, line := range lines[start:] {
		switch {
		case strings.HasPrefix(line, "```"):
			if inFence {
				inFence = false
				sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", max(width-4, 1))) + "\n")
				continue
			}
			inFence = true
			fenceLang = strings.TrimPrefix(line, "```")
			name := fenceLabel(fenceLang)
			sb.WriteString(dimStyle.Render("  ── "+name+" "+strings.Repeat("─", max(width-8-len(name), 1))) + "\n")
		case inFence && fenceLang == "diff":
			sb.WriteString(renderDiffLine(line) + "\n")
		case inFence:
			sb.WriteString("  " + line + "\n")
		case strings.HasPrefix(line, "### "):
			sb.WriteString("\n" + sectionHeader.Render("  "+strings.TrimPrefix(line, "### ")) + "\n")
		case line == "**Change annotation:**":
			sb.WriteString(labelStyle.Render("  Change annotation") + "\n")
		case line == "_No changes_":
			sb.WriteString(dimStyle.Render("  (no changes)") + "\n")
		case strings.TrimSpace(line) == "":
			sb.WriteString("\n")
		default:
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}

func fenceLabel(lang string) string {
	if lang == "" {
		return "content"
	}
	return lang
}

// renderDiffLine colorises one line of a unified diff.
func renderDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
		return diffMetaStyle.Render("  " + line)
	case strings.HasPrefix(line, "+"):
		return diffAddStyle.Render("  " + line)
	case strings.HasPrefix(line, "-"):
		return diffDelStyle.Render("  " + line)
	case strings.HasPrefix(line, "@@"), strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "index "):
		return diffMetaStyle.Render("  " + line)
	default:
		return dimStyle.Render("  " + line)
	}
}

// Run starts the viewer for doc. When w is non-nil the viewer follows the log.
func Run(doc, filename string, w *Watcher) error {
	m := New(doc, filename)
	if w != nil {
		m = m.WithWatcher(w)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
