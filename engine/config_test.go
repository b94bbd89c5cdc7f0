package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDecodesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keel.toml")
	content := `
name = "shadow-demo"
start_width = 1920
start_height = 1080
log_level = "debug"
shader_dir = "build/shaders"
watch_shaders = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "shadow-demo", config.Name)
	assert.EqualValues(t, 1920, config.StartWidth)
	assert.EqualValues(t, 1080, config.StartHeight)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "build/shaders", config.ShaderDir)
	assert.False(t, config.WatchShaders)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "assets", config.AssetDir)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keel.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
