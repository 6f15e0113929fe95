package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voice-tutor/internal/application"
	"voice-tutor/internal/domain"
)

// Controller is what the view needs from the conversation controller.
type Controller interface {
	Press()
	Release()
	Submit(text string)
	DismissAlert()
	Subscribe() (<-chan application.Update, func())
}

type mode int

const (
	modeTalk mode = iota
	modeType
)

type updateMsg application.Update

type closedMsg struct{}

type Model struct {
	controller  Controller
	updates     <-chan application.Update
	unsubscribe func()

	snap  application.Snapshot
	alert *domain.Alert
	mode  mode

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
}

func NewModel(controller Controller) Model {
	updates, unsubscribe := controller.Subscribe()

	in := textinput.New()
	in.Placeholder = "type a message, enter to send"
	in.CharLimit = 500
	in.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAssistant)

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{}

	return Model{
		controller:  controller,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        application.Snapshot{State: application.StateIdle},
		input:       in,
		spinner:     sp,
		viewport:    vp,
		width:       80,
		height:      24,
	}
}

// Close releases the controller subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func waitForUpdate(updates <-chan application.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return updateMsg(u)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case updateMsg:
		m.snap = msg.Snapshot
		if msg.Alert != nil {
			m.alert = msg.Alert
		}
		m.refresh()
		return m, waitForUpdate(m.updates)

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != nil {
			return m.updateAlert(msg)
		}
		switch msg.String() {
		case "pgup":
			m.viewport.ViewUp()
			return m, nil
		case "pgdown":
			m.viewport.ViewDown()
			return m, nil
		}
		if m.mode == modeType {
			return m.updateType(msg)
		}
		return m.updateTalk(msg)
	}
	return m, nil
}

// The alert is modal: only dismissal keys get through.
func (m Model) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.alert = nil
		m.controller.DismissAlert()
	}
	return m, nil
}

func (m Model) updateTalk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeySpace || msg.String() == " " {
		// The terminal reports no key release, so space toggles the talk control.
		// State flips on Press; Recording waits for the recognizer to start.
		if m.snap.State == application.StateRecording {
			m.controller.Release()
		} else {
			m.controller.Press()
		}
		return m, nil
	}

	switch msg.String() {
	case "tab":
		m.mode = modeType
		return m, m.input.Focus()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateType(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "esc":
		m.mode = modeTalk
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text != "" {
			m.controller.Submit(text)
			m.input.Reset()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	// title(1) + status(1) + input(1)
	h := m.height - 3
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 4
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.snap.Messages, m.width))
	m.viewport.GotoBottom()
}

func renderTranscript(messages []domain.Message, width int) string {
	if len(messages) == 0 {
		return MutedStyle.Render("Press space to talk to your tutor, tab to type.")
	}

	body := lipgloss.NewStyle().Width(max(20, width-2))

	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch msg.Sender {
		case domain.SenderUser:
			sb.WriteString(UserStyle.Render("You"))
		case domain.SenderAssistant:
			sb.WriteString(AssistantStyle.Render("Tutor"))
		default:
			sb.WriteString(SystemStyle.Render("System"))
		}
		sb.WriteString("\n")
		if msg.Sender == domain.SenderSystem {
			sb.WriteString(body.Inherit(SystemStyle).Render(msg.Text))
		} else {
			sb.WriteString(body.Render(msg.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if m.alert != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, renderAlert(*m.alert))
	}

	title := AssistantStyle.Render("Voice Tutor")

	bottom := m.statusLine()
	if m.mode == modeType {
		bottom = m.input.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		bottom,
		StatusBarStyle.Width(m.width).Render(m.helpLine()),
	)
}

func (m Model) statusLine() string {
	switch {
	case m.snap.Recording:
		line := RecordingStyle.Render("● Recording")
		if m.snap.Candidate != "" {
			line += MutedStyle.Render(fmt.Sprintf("  %q", m.snap.Candidate))
		}
		return line
	case m.snap.Loading:
		return m.spinner.View() + MutedStyle.Render(" Waiting for the tutor...")
	case m.snap.State == application.StatePending:
		return m.spinner.View() + MutedStyle.Render(" Listening...")
	default:
		return MutedStyle.Render("○ Ready")
	}
}

func (m Model) helpLine() string {
	if m.mode == modeType {
		return "enter send · tab/esc talk mode · pgup/pgdown scroll · ctrl+c quit"
	}
	if m.snap.State == application.StateRecording {
		return "space release · pgup/pgdown scroll · ctrl+c quit"
	}
	return "space talk · tab type · pgup/pgdown scroll · q quit"
}

func renderAlert(a domain.Alert) string {
	return AlertStyle.Render(
		SystemStyle.Render(a.Title) + "\n\n" + a.Message + "\n\n" + MutedStyle.Render("enter to dismiss"),
	)
}
