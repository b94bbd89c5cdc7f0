package engine

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/pellucidar/keel/engine/core"
)

// ApplicationConfig is everything the engine needs to boot, decoded from
// keel.toml.
type ApplicationConfig struct {
	// Window starting position, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting size.
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing.
	Name string `toml:"name"`
	// One of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// Directory holding compiled .spv shaders.
	ShaderDir string `toml:"shader_dir"`
	// Root directory for mesh and texture assets.
	AssetDir string `toml:"asset_dir"`
	// Rebuild pipelines when a .spv in ShaderDir changes.
	WatchShaders bool `toml:"watch_shaders"`
}

// DefaultConfig is the configuration used when no keel.toml exists.
func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:    100,
		StartPosY:    100,
		StartWidth:   1280,
		StartHeight:  720,
		Name:         "Keel",
		LogLevel:     "info",
		ShaderDir:    "shaders",
		AssetDir:     "assets",
		WatchShaders: true,
	}
}

// LoadConfig reads a TOML config file. Missing file falls back to defaults;
// fields absent from the file keep their default values.
func LoadConfig(path string) (*ApplicationConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogInfo("config: %s not found, using defaults", path)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}
