package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/fetchview/internal/loadable"
)

// fetchDoneMsg carries a finished fetch back to the event loop.
type fetchDoneMsg[T any] struct {
	loader *loadable.Loader[T]
	ticket loadable.Ticket
	value  T
	err    error
}

// DetailModel is a Bubble Tea model that displays one loader's state.
//
// Triggers call Loader.Begin on the event loop, the fetch runs in a tea.Cmd,
// and its result is applied with Loader.Complete when the completion message
// arrives, so the event loop is the only writer of the loader's state.
type DetailModel[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc

	loader *loadable.Loader[T]
	render ContentRenderer[T]
	title  string

	loading *LoadingState
	keys    KeyMap
	help    help.Model

	width int

	// pending is the generation of the latest fetch started here, 0 if none.
	pending    uint64
	refreshing bool
	focused    bool
	quitting   bool
}

// NewDetailModel creates a model for loader. A nil render uses DefaultRenderer.
// The model owns loader and closes it on quit.
func NewDetailModel[T any](ctx context.Context, loader *loadable.Loader[T], render ContentRenderer[T]) *DetailModel[T] {
	if render == nil {
		render = DefaultRenderer[T]
	}
	ctx, cancel := context.WithCancel(ctx)
	return &DetailModel[T]{
		ctx:     ctx,
		cancel:  cancel,
		loader:  loader,
		render:  render,
		title:   loader.Name(),
		loading: NewLoadingState(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		width:   defaultWidth,
		focused: true,
	}
}

// SetTitle replaces the panel title (the loader name by default).
func (m *DetailModel[T]) SetTitle(title string) {
	m.title = title
}

// State returns the loader's current state.
func (m *DetailModel[T]) State() loadable.State[T] {
	return m.loader.Snapshot()
}

// Loader returns the loader driven by the model.
func (m *DetailModel[T]) Loader() *loadable.Loader[T] {
	return m.loader
}

// Pending reports whether a fetch started by the model has not completed.
func (m *DetailModel[T]) Pending() bool {
	return m.pending != 0
}

// Init begins the initial load. It does nothing if the state is not Idle.
func (m *DetailModel[T]) Init() tea.Cmd {
	return m.start(loadable.TriggerInitial)
}

// Update handles messages and updates the model state.
func (m *DetailModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Quit) {
		m.Stop()
		return m, tea.Quit
	}
	return m, m.update(msg)
}

// update handles everything except quitting, so a Dashboard can route
// messages to its panels.
func (m *DetailModel[T]) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return nil
	case fetchDoneMsg[T]:
		return m.handleFetchDone(msg)
	case spinner.TickMsg:
		if m.pending == 0 {
			return nil
		}
		return m.loading.Update(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *DetailModel[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Retry):
		if !m.loader.Snapshot().IsFailed() {
			return nil
		}
		return m.start(loadable.TriggerRetry)
	case key.Matches(msg, m.keys.Refresh):
		return m.start(loadable.TriggerRefresh)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *DetailModel[T]) handleFetchDone(msg fetchDoneMsg[T]) tea.Cmd {
	if msg.loader != m.loader {
		return nil
	}
	m.loader.Complete(m.ctx, msg.ticket, msg.value, msg.err)
	if msg.ticket.Generation == m.pending {
		m.pending = 0
		m.refreshing = false
	}
	return nil
}

// start begins a fetch for trigger and returns the command that runs it.
func (m *DetailModel[T]) start(trigger loadable.Trigger) tea.Cmd {
	ticket, ok := m.loader.Begin(m.ctx, trigger)
	if !ok {
		return nil
	}

	spinning := m.pending != 0
	m.pending = ticket.Generation
	m.refreshing = trigger == loadable.TriggerRefresh

	ctx, loader := m.ctx, m.loader
	fetch := func() tea.Msg {
		value, err := loader.Fetch(ctx, ticket)
		return fetchDoneMsg[T]{loader: loader, ticket: ticket, value: value, err: err}
	}
	if spinning {
		return fetch
	}
	return tea.Batch(m.loading.Init(), fetch)
}

// Stop cancels in-flight fetches and closes the loader.
func (m *DetailModel[T]) Stop() {
	m.quitting = true
	m.cancel()
	m.loader.Close()
}

// View renders the panel followed by the key help.
func (m *DetailModel[T]) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.Panel(), m.HelpView())
}

// HelpView renders the key help. Retry is only offered while the state is Failed.
func (m *DetailModel[T]) HelpView() string {
	m.keys.Retry.SetEnabled(m.loader.Snapshot().IsFailed())
	return m.help.View(m.keys)
}

// Panel renders the state inside a bordered box.
func (m *DetailModel[T]) Panel() string {
	state := m.loader.Snapshot()

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(m.title))
	content.WriteString("  ")
	content.WriteString(StateStyle(state.TypeName()).Render(state.TypeName()))
	if m.refreshing {
		content.WriteString(SubtleStyle.Render("  refreshing..."))
	}
	content.WriteString("\n\n")

	inner := m.width - 2*borderPadding
	switch state.Kind() {
	case loadable.KindIdle:
		content.WriteString(SubtleStyle.Render("Nothing loaded yet. Press R to load."))
	case loadable.KindLoading:
		content.WriteString(m.loading.View())
	case loadable.KindLoaded:
		value, _ := state.Value()
		content.WriteString(m.render(value, inner))
	case loadable.KindFailed:
		content.WriteString(CriticalStyle.Render("Error: "))
		content.WriteString(WarningStyle.Render(truncate(state.Err().Error(), inner-len("Error: "))))
		content.WriteString("\n")
		content.WriteString(SubtleStyle.Render("Press r to retry."))
	}

	box := BoxStyle
	if m.focused {
		box = FocusedBoxStyle
	}
	return box.Width(m.width - borderPadding).Render(content.String())
}
