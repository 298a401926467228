package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/spatial"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// layoutItem implements list.Item for the picker sidebar.
type layoutItem struct {
	layout    layout.Layout
	isCurrent bool
}

func (i layoutItem) Title() string {
	prefix := "  "
	if i.isCurrent {
		prefix = "* "
	}
	return prefix + i.layout.Name
}

func (i layoutItem) Description() string { return "" }
func (i layoutItem) FilterValue() string { return i.layout.Name }

type statusMsg struct {
	text string
}

type clearStatusMsg struct{}

type refreshMsg struct{}

// model is the root bubbletea model for the zone picker.
type model struct {
	client *ipc.Client
	list   list.Model

	activeSpace string
	zoneIndex   int
	currentID   string
	statusText  string
	fatalErr    error

	width  int
	height int
}

func newModel(client *ipc.Client) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Layouts"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := model{
		client: client,
		list:   l,
	}
	m.refresh()
	return m
}

func (m *model) refresh() {
	state, err := m.client.GetState()
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return
	}

	m.activeSpace = state.ActiveSpace
	m.currentID = state.LastSelected
	m.zoneIndex = 0
	if st, ok := state.Spaces[spatial.SpaceKey(state.ActiveSpace)]; ok {
		m.currentID = st.LayoutID
		m.zoneIndex = st.ZoneIndex
	}

	items := make([]list.Item, 0, len(state.Layouts))
	selected := 0
	for i, l := range state.Layouts {
		if l.ID == m.currentID {
			selected = i
		}
		items = append(items, layoutItem{layout: l, isCurrent: l.ID == m.currentID})
	}
	m.list.SetItems(items)
	m.list.Select(selected)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
		return m, nil

	case statusMsg:
		m.statusText = msg.text
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter", "a":
			return m.applySelected()
		case "c":
			return m.cycleCurrent(1)
		case "C":
			return m.cycleCurrent(-1)
		case "r":
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) applySelected() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(layoutItem)
	if !ok {
		return m, nil
	}

	_, err := m.client.Trigger(ipc.TriggerActionPayload{
		Action:   ipc.ActionSetCurrent,
		Space:    m.activeSpace,
		LayoutID: item.layout.ID,
	})
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	} else {
		m.currentID = item.layout.ID
		m.zoneIndex = 0
		m.statusText = fmt.Sprintf("applied: %s", item.layout.Name)
		m.refresh()
	}
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) cycleCurrent(direction int) (tea.Model, tea.Cmd) {
	result, err := m.client.Trigger(ipc.TriggerActionPayload{
		Action:    ipc.ActionCycleZone,
		Space:     m.activeSpace,
		Direction: direction,
	})
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
	} else {
		m.statusText = fmt.Sprintf("zone: %s", result.ZoneName)
		m.refresh()
		m.zoneIndex = result.ZoneIndex
	}
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *model) updateListSize() {
	sw := m.sidebarWidth()
	listHeight := m.height - 4
	if listHeight < 1 {
		listHeight = 1
	}
	m.list.SetSize(sw, listHeight)
}

func (m model) sidebarWidth() int {
	sw := m.width * 35 / 100
	if sw < 20 {
		sw = 20
	}
	if sw > 40 {
		sw = 40
	}
	return sw
}

func (m model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := titleStyle.Render("zonetile") + "  " + helpStyle.Render(m.activeSpace)

	previewWidth := m.width - m.sidebarWidth() - 4
	previewHeight := m.height - 6
	if previewWidth < 10 {
		previewWidth = 10
	}
	if previewHeight < 5 {
		previewHeight = 5
	}

	var preview string
	if item, ok := m.list.SelectedItem().(layoutItem); ok {
		highlight := -1
		if item.layout.ID == m.currentID {
			highlight = m.zoneIndex
		}
		lines := RenderPreview(item.layout, previewWidth, previewHeight, highlight)
		preview = previewStyle.Render(joinLines(lines)) + "\n" +
			helpStyle.Render(summarizeLayout(item.layout))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), "  ", preview)

	footer := helpStyle.Render("enter apply • c/C cycle zone • r refresh • q quit")
	if m.statusText != "" {
		footer = statusStyle.Render(m.statusText)
	}

	return header + "\n\n" + body + "\n" + footer
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Run starts the interactive zone picker. It requires a TTY and a
// running daemon.
func Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("picker requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		return err
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
