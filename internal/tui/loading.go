package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultLoadingMessage = "Loading..."

// LoadingState wraps a spinner and the message shown next to it.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState returns a LoadingState with the default message.
func NewLoadingState() *LoadingState {
	return &LoadingState{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		message: defaultLoadingMessage,
	}
}

// SetMessage replaces the text shown next to the spinner.
func (l *LoadingState) SetMessage(msg string) {
	l.message = msg
}

// Init starts the spinner animation.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner. Ticks addressed to other spinners are ignored.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View renders the spinner followed by the message.
func (l *LoadingState) View() string {
	return l.spinner.View() + " " + l.message
}

// RenderLoading returns the loading screen text. A nil loading state renders
// as plain "Loading...".
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return defaultLoadingMessage
	}
	return fmt.Sprintf("\n %s\n\n", loading.View())
}
