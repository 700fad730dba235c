package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is the dashboard's data poll period.
const refreshInterval = time.Second

// Source supplies one refresh worth of fleet data. The daemon wires
// it to the live plugin registries; tests use a canned snapshot.
type Source func() Snapshot

// Submit forwards a typed command line to the bus.
type Submit func(line string)

// Model is the Bubble Tea model for the dashboard. It implements the
// tea.Model interface (Init, Update, View).
type Model struct {
	node    string
	version string

	page     Page
	snap     Snapshot
	feed     *Feed
	source   Source
	submit   Submit
	input    string
	lastTick time.Time

	width, height int
	quitting      bool
}

// TickMsg signals time for a refresh.
type TickMsg time.Time

// NewModel creates the dashboard model.
func NewModel(node, version string, feed *Feed, source Source, submit Submit) *Model {
	return &Model{
		node:    node,
		version: version,
		feed:    feed,
		source:  source,
		submit:  submit,
		width:   80,
		height:  24,
	}
}

// Init starts the refresh timer.
func (m *Model) Init() tea.Cmd {
	m.snap = m.source()
	return m.tick()
}

// Update handles key, resize, and tick messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.snap = m.source()
		m.lastTick = time.Time(msg)
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyTab, tea.KeyRight:
		m.page = (m.page + 1) % pageCount
		return m, nil

	case tea.KeyShiftTab, tea.KeyLeft:
		m.page = (m.page + pageCount - 1) % pageCount
		return m, nil

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input)
		m.input = ""
		if line != "" && m.submit != nil {
			m.submit(line)
		}
		return m, nil

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.input += " "
		return m, nil

	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// View renders the tabs, the active page, the feed pane, and the
// prompt.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("homelink "+m.node) +
		styleMuted.Render("  v"+m.version) + "\n")
	b.WriteString(m.renderTabs() + "\n\n")

	switch m.page {
	case PageDevices:
		renderDevices(&b, &m.snap, m.version, time.Now())
	case PageNAS:
		renderNAS(&b, &m.snap)
	case PageWeather:
		renderWeather(&b, &m.snap)
	case PageTodos:
		renderTodos(&b, &m.snap)
	}

	b.WriteString("\n" + styleMuted.Render(strings.Repeat("─", min(m.width, 80))) + "\n")
	for _, line := range m.feed.Last(m.feedHeight()) {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + stylePrompt.Render("> ") + m.input + "█")
	b.WriteString("\n" + styleMuted.Render("tab: pages · enter: send · esc: quit"))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, int(pageCount))
	for p := Page(0); p < pageCount; p++ {
		if p == m.page {
			tabs = append(tabs, styleTabActive.Render(p.String()))
		} else {
			tabs = append(tabs, styleTab.Render(p.String()))
		}
	}
	return strings.Join(tabs, "  ")
}

// feedHeight bounds the feed pane so the page content stays visible.
func (m *Model) feedHeight() int {
	h := m.height - 16
	if h < 3 {
		h = 3
	}
	if h > 12 {
		h = 12
	}
	return h
}

// Page returns the active page, for tests.
func (m *Model) Page() Page { return m.page }

// Input returns the pending prompt content, for tests.
func (m *Model) Input() string { return m.input }

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
