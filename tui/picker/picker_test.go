package picker

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

func testConfigs() []*buildcfg.Configuration {
	return []*buildcfg.Configuration{
		{Name: "Debug", Directory: "/ws/app/build/debug"},
		{Name: "Release", Directory: "/ws/app/build/release"},
		{Name: "RelWithDebInfo", Directory: "/ws/app/build/relwithdebinfo", Commands: &buildcfg.CommandSet{Build: "ninja"}},
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew_CursorOnActive(t *testing.T) {
	configs := testConfigs()
	m := New(configs, configs[1], "/ws/app", nil)

	assert.Equal(t, 1, m.cursor)
}

func TestNew_NoActive(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	assert.Equal(t, 0, m.cursor)
	assert.Len(t, m.filtered, 3)
}

func TestUpdate_Navigation(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	m.Update(runeKey('j'))
	assert.Equal(t, 1, m.cursor, "j should move down")

	m.Update(runeKey('k'))
	assert.Equal(t, 0, m.cursor, "k should move up")

	m.Update(runeKey('G'))
	assert.Equal(t, 2, m.cursor, "G should jump to bottom")

	// gg is a two-key sequence
	m.Update(runeKey('g'))
	assert.Equal(t, 2, m.cursor, "single g should be pending")
	m.Update(runeKey('g'))
	assert.Equal(t, 0, m.cursor, "gg should jump to top")
}

func TestUpdate_ConfirmSelects(t *testing.T) {
	configs := testConfigs()
	m := New(configs, nil, "/ws/app", nil)

	m.Update(runeKey('j'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.Selected)
	assert.Equal(t, "Release", m.Selected.Name)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_ClearRequested(t *testing.T) {
	configs := testConfigs()
	m := New(configs, configs[0], "/ws/app", nil)

	_, cmd := m.Update(runeKey('x'))

	assert.True(t, m.ClearRequested)
	assert.Nil(t, m.Selected)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_QuitWithoutSelection(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	_, cmd := m.Update(runeKey('q'))

	assert.Nil(t, m.Selected)
	assert.False(t, m.ClearRequested)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFilter_NarrowsAndSelects(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	m.Update(runeKey('/'))
	require.True(t, m.filterInput.Focused())

	for _, r := range "relw" {
		m.Update(runeKey(r))
	}
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "RelWithDebInfo", m.filtered[0].Name)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Selected)
	assert.Equal(t, "RelWithDebInfo", m.Selected.Name)
}

func TestFilter_EscBlursKeepsValue(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	m.Update(runeKey('/'))
	for _, r := range "debug" {
		m.Update(runeKey(r))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.filterInput.Focused())
	assert.Equal(t, "debug", m.filterInput.Value())
	assert.Len(t, m.filtered, 1)
}

func TestFilter_ClearSearchRestoresList(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	m.Update(runeKey('/'))
	for _, r := range "debug" {
		m.Update(runeKey(r))
	}
	require.Len(t, m.filtered, 1)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, m.filterInput.Value())
	assert.Len(t, m.filtered, 3)
}

func TestUpdate_ConfigsLoaded(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	replacement := []*buildcfg.Configuration{
		{Name: "Coverage", Directory: "/ws/app/build/coverage"},
	}
	m.Update(configsLoadedMsg{configs: replacement})

	require.Len(t, m.filtered, 1)
	assert.Equal(t, "Coverage", m.filtered[0].Name)
	assert.Empty(t, m.status)
}

func TestUpdate_ConfigsLoadedError(t *testing.T) {
	m := New(testConfigs(), nil, "/ws/app", nil)

	m.Update(configsLoadedMsg{err: errors.New("daemon unavailable")})

	assert.Len(t, m.filtered, 3, "list is kept on refresh failure")
	assert.Contains(t, m.status, "daemon unavailable")
}

func TestView_ShowsConfigurations(t *testing.T) {
	configs := testConfigs()
	m := New(configs, configs[0], "/ws/app", nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()

	assert.Contains(t, out, "Debug")
	assert.Contains(t, out, "Release")
}
