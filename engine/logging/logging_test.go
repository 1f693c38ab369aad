package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
)

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	logger, err := New(config.Log{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("light rejected", zap.String("light", "lamp9"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"light rejected"`)
	assert.Contains(t, string(data), `"light":"lamp9"`)
	assert.NotContains(t, string(data), "dropped")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"})
	assert.Error(t, err)
}

func TestNewDefaultsLevel(t *testing.T) {
	logger, err := New(config.Log{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
