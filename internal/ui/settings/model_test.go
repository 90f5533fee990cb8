package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/keys"
	"github.com/nhle/todo-board/internal/model"
)

func testConfig(dir string) model.AppConfig {
	return model.AppConfig{
		Storage: model.StorageConfig{Backend: model.BackendFile, DataDir: dir},
		Host:    model.HostConfig{Addr: "127.0.0.1:7420", TokenTTLSec: 300},
		Display: model.DisplayConfig{WeekStart: "Monday"},
		Log:     model.LogConfig{Level: "info"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConnectionCheck(t *testing.T) {
	k := keys.DefaultKeyMap()
	var got model.StorageConfig
	check := func(_ context.Context, cfg model.StorageConfig) error {
		got = cfg
		return errors.New("connection refused")
	}
	m := New(testConfig(t.TempDir()), "config.yaml", check, k, 80, 24)

	m, cmd := m.Update(keyMsg("t"))
	require.NotNil(t, cmd)
	assert.Equal(t, modeValidating, m.mode)
	assert.Contains(t, m.View(), "Testing file backend")

	m, _ = m.Update(checkResultMsg{backend: model.BackendFile, err: check(context.Background(), m.cfg.Storage)})
	assert.Equal(t, model.BackendFile, got.Backend)
	assert.Equal(t, modeResult, m.mode)
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "connection refused")

	m, _ = m.Update(keyMsg("esc"))
	assert.Equal(t, modeSummary, m.mode)
}

func TestCheckResultAfterCancelIsIgnored(t *testing.T) {
	k := keys.DefaultKeyMap()
	m := New(testConfig(t.TempDir()), "config.yaml", func(context.Context, model.StorageConfig) error { return nil }, k, 80, 24)

	m, _ = m.Update(keyMsg("t"))
	m, _ = m.Update(keyMsg("esc"))
	m, _ = m.Update(checkResultMsg{backend: model.BackendFile})
	assert.Equal(t, modeSummary, m.mode)
}

func TestSaveWritesConfig(t *testing.T) {
	k := keys.DefaultKeyMap()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	m := New(testConfig(dir), path, nil, k, 80, 24)

	m.fillBindings()
	m.fb.backend = model.BackendSQLite
	m.fb.weekStart = "Sunday"
	cfg := m.applyBindings()

	msg := m.save(cfg)()
	m, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	saved, ok := cmd().(SettingsSavedMsg)
	require.True(t, ok)
	assert.Equal(t, model.BackendSQLite, saved.Config.Storage.Backend)
	assert.Contains(t, m.View(), "restart to apply")

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.BackendSQLite, loaded.Storage.Backend)
	assert.Equal(t, "Sunday", loaded.Display.WeekStart)
}

func TestEscClosesSummary(t *testing.T) {
	k := keys.DefaultKeyMap()
	m := New(testConfig(t.TempDir()), "config.yaml", nil, k, 80, 24)

	_, cmd := m.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, SettingsCloseMsg{}, cmd())
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://me:xxxxx@db/todos", redactDSN("postgres://me:secret@db/todos"))
	assert.Equal(t, "/tmp/x.db", redactDSN("/tmp/x.db"))
}

func TestValidateOptionalURL(t *testing.T) {
	assert.NoError(t, validateOptionalURL(""))
	assert.NoError(t, validateOptionalURL("http://localhost:7420"))
	assert.Error(t, validateOptionalURL("localhost"))
}
