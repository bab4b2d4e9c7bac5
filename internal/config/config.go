package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Window    WindowConfig    `toml:"window"`
	JobSystem JobSystemConfig `toml:"job_system"`
	Graphics  GraphicsConfig  `toml:"graphics"`
	Assets    AssetsConfig    `toml:"assets"`
	Scripts   ScriptsConfig   `toml:"scripts"`
	Loop      LoopConfig      `toml:"loop"`
	Logging   LoggingConfig   `toml:"logging"`
	Debug     DebugConfig     `toml:"debug"`
}

type EngineConfig struct {
	Name string `toml:"name"`
}

// WindowConfig sizes the native window. Zero values leave the choice to
// the platform.
type WindowConfig struct {
	Title      string `toml:"title"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	MinWidth   int    `toml:"min_width"`
	MinHeight  int    `toml:"min_height"`
	MaxWidth   int    `toml:"max_width"`
	MaxHeight  int    `toml:"max_height"`
	Resizable  bool   `toml:"resizable"`
	Maximized  bool   `toml:"maximized"`
	Fullscreen bool   `toml:"fullscreen"`
	Hidden     bool   `toml:"hidden"`
}

type JobSystemConfig struct {
	MaxJobs          int `toml:"max_jobs"`          // 0 = unbounded
	ExecutionThreads int `toml:"execution_threads"` // 0 = number of CPUs
}

// Color is RGBA with components in [0,1].
type Color [4]float64

type GraphicsConfig struct {
	ClearColor Color `toml:"clear_color"`
}

type AssetsConfig struct {
	Root string `toml:"root"`
}

type ScriptsConfig struct {
	Dir      string `toml:"dir"`
	Manifest string `toml:"manifest"` // relative to Dir
}

type LoopConfig struct {
	FrameRate time.Duration `toml:"frame_rate"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DebugConfig struct {
	Addr string `toml:"addr"` // empty disables the debug endpoint
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JobSystem.MaxJobs < 0 {
		return fmt.Errorf("job_system.max_jobs must be >= 0, got %d", c.JobSystem.MaxJobs)
	}
	if c.JobSystem.ExecutionThreads < 0 {
		return fmt.Errorf("job_system.execution_threads must be >= 0, got %d", c.JobSystem.ExecutionThreads)
	}
	for i, v := range c.Graphics.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("graphics.clear_color[%d] = %g is outside [0,1]", i, v)
		}
	}
	if c.Window.MaxWidth > 0 && c.Window.MinWidth > c.Window.MaxWidth {
		return fmt.Errorf("window.min_width %d exceeds max_width %d", c.Window.MinWidth, c.Window.MaxWidth)
	}
	if c.Window.MaxHeight > 0 && c.Window.MinHeight > c.Window.MaxHeight {
		return fmt.Errorf("window.min_height %d exceeds max_height %d", c.Window.MinHeight, c.Window.MaxHeight)
	}
	if c.Loop.FrameRate <= 0 {
		return fmt.Errorf("loop.frame_rate must be positive")
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name: "Nova",
		},
		Window: WindowConfig{
			Title:     "Nova",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Graphics: GraphicsConfig{
			ClearColor: Color{0, 0, 0, 1},
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
		Scripts: ScriptsConfig{
			Dir:      "scripts",
			Manifest: "scenes.yaml",
		},
		Loop: LoopConfig{
			FrameRate: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
