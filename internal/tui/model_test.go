package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-tutor/internal/application"
	"voice-tutor/internal/domain"
)

type fakeController struct {
	presses      int
	releases     int
	dismissals   int
	submitted    []string
	updates      chan application.Update
	unsubscribed bool
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan application.Update, 4)}
}

func (f *fakeController) Press()             { f.presses++ }
func (f *fakeController) Release()           { f.releases++ }
func (f *fakeController) Submit(text string) { f.submitted = append(f.submitted, text) }
func (f *fakeController) DismissAlert()      { f.dismissals++ }

func (f *fakeController) Subscribe() (<-chan application.Update, func()) {
	return f.updates, func() { f.unsubscribed = true }
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func space() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func TestModel_SpaceTogglesTalkControl(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)

	m = send(t, m, space())
	assert.Equal(t, 1, ctrl.presses)

	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StateRecording, Recording: true}})
	assert.Contains(t, m.View(), "Recording")

	m = send(t, m, space())
	assert.Equal(t, 1, ctrl.releases)
	assert.Equal(t, 1, ctrl.presses)
}

func TestModel_SpaceReleasesBeforeRecognizerStarts(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)

	m = send(t, m, space())
	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StateRecording}})
	m = send(t, m, space())

	assert.Equal(t, 1, ctrl.presses)
	assert.Equal(t, 1, ctrl.releases)
}

func TestModel_PageKeysScrollTranscript(t *testing.T) {
	m := NewModel(newFakeController())
	m = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 8})

	var messages []domain.Message
	for i := 0; i < 20; i++ {
		messages = append(messages, domain.NewMessage(domain.SenderUser, "line"))
	}
	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StateIdle, Messages: messages}})
	require.True(t, m.viewport.AtBottom())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.False(t, m.viewport.AtBottom())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.True(t, m.viewport.AtBottom())
}

func TestModel_TypedSubmission(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, modeType, m.mode)

	for _, r := range "  merci  " {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"merci"}, ctrl.submitted)
	assert.Empty(t, m.input.Value())

	// space while typing is text, not the talk control
	m = send(t, m, space())
	assert.Zero(t, ctrl.presses)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeTalk, m.mode)
}

func TestModel_RendersTranscript(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = send(t, m, updateMsg{Snapshot: application.Snapshot{
		State: application.StateIdle,
		Messages: []domain.Message{
			domain.NewMessage(domain.SenderUser, "How do I say hello?"),
			domain.NewMessage(domain.SenderAssistant, "Bonjour"),
			domain.NewMessage(domain.SenderSystem, domain.NetworkErrorText),
		},
	}})

	view := m.View()
	for _, want := range []string{"You", "How do I say hello?", "Tutor", "Bonjour", domain.NetworkErrorText} {
		assert.Contains(t, view, want)
	}
	assert.Less(t, strings.Index(view, "Bonjour"), strings.Index(view, domain.NetworkErrorText))
}

func TestModel_AlertIsModal(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)

	alert := domain.NetworkAlert()
	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StateIdle}, Alert: &alert})
	assert.Contains(t, m.View(), alert.Title)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, modeTalk, m.mode, "keys other than dismissal are swallowed")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.alert)
	assert.Equal(t, 1, ctrl.dismissals)
	assert.NotContains(t, m.View(), alert.Title)

	// a later update without an alert does not bring it back
	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StateIdle}})
	assert.Nil(t, m.alert)
}

func TestModel_LoadingShowsSpinnerStatus(t *testing.T) {
	m := NewModel(newFakeController())
	m = send(t, m, updateMsg{Snapshot: application.Snapshot{State: application.StatePending, Loading: true}})
	assert.Contains(t, m.View(), "Waiting for the tutor")
}

func TestModel_WaitForUpdate(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl)

	ctrl.updates <- application.Update{Snapshot: application.Snapshot{State: application.StatePending}}
	msg := waitForUpdate(m.updates)()
	u, ok := msg.(updateMsg)
	require.True(t, ok)
	assert.Equal(t, application.StatePending, u.Snapshot.State)

	close(ctrl.updates)
	_, ok = waitForUpdate(m.updates)().(closedMsg)
	assert.True(t, ok)

	m.Close()
	assert.True(t, ctrl.unsubscribed)
}
