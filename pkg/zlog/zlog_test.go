package zlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	t.Cleanup(func() { SetLogger(zap.NewNop()) })
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Options{LogPath: path, Level: "debug"}))

	Info("workflow run", zap.Int("scanned", 3))
	Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"workflow run"`)
	assert.Contains(t, string(b), `"scanned":3`)
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init(Options{Level: "loud"}))
}
