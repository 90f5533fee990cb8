package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func submit(t *testing.T, m Model) CommandMsg {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(CommandMsg)
	require.True(t, ok)
	return msg
}

func TestFuzzyPicksBestMatch(t *testing.T) {
	m := typeText(New(80, 24), "cal")

	require.NotEmpty(t, m.matches)
	assert.Equal(t, "calendar", Commands[m.matches[0].Index].Name)
	assert.Equal(t, CommandMsg("calendar"), submit(t, m))
}

func TestExactNameKeepsArguments(t *testing.T) {
	m := typeText(New(80, 24), "filter active")

	assert.Equal(t, CommandMsg("filter active"), submit(t, m))
}

func TestSelectionMoves(t *testing.T) {
	m := New(80, 24)
	require.Len(t, m.matches, len(Commands))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	assert.Equal(t, CommandMsg(Commands[1].Name), submit(t, m))
}

func TestNoMatchDoesNothing(t *testing.T) {
	m := typeText(New(80, 24), "zzz")
	require.Empty(t, m.matches)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}
