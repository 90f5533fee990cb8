package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo-board/internal/model"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := New(model.LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	log.WithComponent("test").Infow("hello", "answer", 42)
	_ = log.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"answer":42`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(model.LogConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Infow("nothing to see")
	assert.NoError(t, log.Close())
}
