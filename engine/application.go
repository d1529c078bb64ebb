package engine

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/helios/engine/core"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Directory holding the compiled .spv shaders.
	ShaderDir string `toml:"shader_dir"`
	// Number of goroutines recording draw commands. Zero means one per CPU.
	RecordWorkers int `toml:"record_workers"`
	// Enables validation layers and the debug messenger.
	Debug bool `toml:"debug"`
	// Watches ShaderDir and rebuilds pipelines when shaders change on disk.
	WatchShaders bool `toml:"watch_shaders"`
}

// DefaultApplicationConfig returns a config usable without any file on disk.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  800,
		StartHeight: 600,
		Name:        "Helios",
		ShaderDir:   "shaders",
	}
}

// LoadApplicationConfig reads a TOML config from path, falling back to the
// defaults for anything the file does not set. A missing file is not an
// error.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogWarn("config file `%s` not found, using defaults", path)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		core.LogError("failed to parse config file `%s`: %s", path, err)
		return nil, err
	}
	return config, nil
}
