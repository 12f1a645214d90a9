package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(t *testing.T) (*Dashboard[[]string], *int, *int) {
	t.Helper()
	callsA, callsB := 0, 0
	a := newTestModel(t, scriptedFetch(&callsA, 1), nil)
	a.SetTitle("alpha")
	b := newTestModel(t, scriptedFetch(&callsB, 1), nil)
	b.SetTitle("beta")
	return NewDashboard(a, b), &callsA, &callsB
}

// loadAll runs the dashboard's initial loads to completion.
func loadAll(t *testing.T, d *Dashboard[[]string]) {
	t.Helper()
	for _, msg := range runCmd(d.Init()) {
		d.Update(msg)
	}
}

func TestDashboard_InitLoadsEveryPanel(t *testing.T) {
	d, callsA, callsB := newTestDashboard(t)
	loadAll(t, d)

	assert.Equal(t, 1, *callsA)
	assert.Equal(t, 1, *callsB)
	for _, p := range d.Panels() {
		assert.True(t, p.State().IsFailed())
	}

	view := d.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "beta")
}

func TestDashboard_RetryGoesToFocusedPanel(t *testing.T) {
	d, callsA, callsB := newTestDashboard(t)
	loadAll(t, d)

	_, cmd := d.Update(keyRune('r'))
	require.NotNil(t, cmd)
	d.Update(fetchResult(t, cmd))

	assert.Equal(t, 2, *callsA)
	assert.Equal(t, 1, *callsB)
	assert.True(t, d.Panels()[0].State().IsLoaded())
	assert.True(t, d.Panels()[1].State().IsFailed())
}

func TestDashboard_TabCyclesFocus(t *testing.T) {
	d, _, callsB := newTestDashboard(t)
	loadAll(t, d)
	tab := tea.KeyMsg{Type: tea.KeyTab}

	assert.Equal(t, 0, d.Focused())
	d.Update(tab)
	assert.Equal(t, 1, d.Focused())
	assert.False(t, d.Panels()[0].focused)
	assert.True(t, d.Panels()[1].focused)

	_, cmd := d.Update(keyRune('r'))
	d.Update(fetchResult(t, cmd))
	assert.Equal(t, 2, *callsB)

	d.Update(tab)
	assert.Equal(t, 0, d.Focused())
}

func TestDashboard_QuitStopsAllPanels(t *testing.T) {
	d, _, _ := newTestDashboard(t)
	d.Init()

	_, cmd := d.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	for _, p := range d.Panels() {
		assert.True(t, p.Loader().Closed())
	}
	assert.Empty(t, d.View())
}

func TestDashboard_BroadcastsWindowSize(t *testing.T) {
	d, _, _ := newTestDashboard(t)
	d.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	for _, p := range d.Panels() {
		assert.Equal(t, 60, p.width)
	}
}

func TestDashboard_Empty(t *testing.T) {
	d := NewDashboard[[]string]()
	assert.Empty(t, d.View())
	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
}
