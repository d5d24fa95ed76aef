package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recera/drawflow/pkg/canvas"
	"github.com/recera/drawflow/pkg/geometry"
)

// FileName is the config file looked up in the project directory
const FileName = "drawflow.yaml"

// Config represents the drawflow.yaml configuration
type Config struct {
	// HTTP server configuration
	Server *ServerConfig `yaml:"server,omitempty"`

	// Graph persistence
	Store *StoreConfig `yaml:"store,omitempty"`

	// Canvas defaults handed to every session
	Canvas *CanvasConfig `yaml:"canvas,omitempty"`

	// Log level: debug, info, warn or error
	LogLevel string `yaml:"logLevel,omitempty"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// Graph document served to new sessions
	Graph string `yaml:"graph,omitempty"`
}

// StoreConfig selects where graphs are persisted
type StoreConfig struct {
	// Driver is "file", "postgres" or "memory"
	Driver string `yaml:"driver,omitempty"`

	// Directory holding <name>.json documents for the file driver
	Dir string `yaml:"dir,omitempty"`

	// Connection string for the postgres driver
	DSN string `yaml:"dsn,omitempty"`

	// Reload sessions when the stored document changes on disk
	Watch bool `yaml:"watch"`
}

// CanvasConfig mirrors canvas.Options
type CanvasConfig struct {
	OriginX        float64 `yaml:"originX"`
	OriginY        float64 `yaml:"originY"`
	Width          float64 `yaml:"width,omitempty"`
	Height         float64 `yaml:"height,omitempty"`
	GrowthMargin   float64 `yaml:"growthMargin,omitempty"`
	GrowthStep     float64 `yaml:"growthStep,omitempty"`
	HoverThreshold float64 `yaml:"hoverThreshold,omitempty"`
}

// Load loads configuration from path. A directory is searched for
// drawflow.yaml; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	var config Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		config = *DefaultConfig()
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	applyDefaults(&config)
	if err := applyEnv(&config, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save saves configuration to drawflow.yaml in projectPath
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Host:  "localhost",
			Port:  8080,
			Graph: "default",
		},
		Store: &StoreConfig{
			Driver: "file",
			Dir:    "graphs",
		},
		Canvas: &CanvasConfig{
			Width:          500,
			Height:         500,
			GrowthMargin:   200,
			GrowthStep:     200,
			HoverThreshold: 10,
		},
		LogLevel: "info",
	}
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	def := DefaultConfig()

	if config.Server == nil {
		config.Server = def.Server
	} else {
		if config.Server.Host == "" {
			config.Server.Host = def.Server.Host
		}
		if config.Server.Port == 0 {
			config.Server.Port = def.Server.Port
		}
		if config.Server.Graph == "" {
			config.Server.Graph = def.Server.Graph
		}
	}

	if config.Store == nil {
		config.Store = def.Store
	} else {
		if config.Store.Driver == "" {
			config.Store.Driver = def.Store.Driver
		}
		if config.Store.Driver == "file" && config.Store.Dir == "" {
			config.Store.Dir = def.Store.Dir
		}
	}

	if config.Canvas == nil {
		config.Canvas = def.Canvas
	} else {
		if config.Canvas.Width == 0 {
			config.Canvas.Width = def.Canvas.Width
		}
		if config.Canvas.Height == 0 {
			config.Canvas.Height = def.Canvas.Height
		}
		if config.Canvas.GrowthMargin == 0 {
			config.Canvas.GrowthMargin = def.Canvas.GrowthMargin
		}
		if config.Canvas.GrowthStep == 0 {
			config.Canvas.GrowthStep = def.Canvas.GrowthStep
		}
		if config.Canvas.HoverThreshold == 0 {
			config.Canvas.HoverThreshold = def.Canvas.HoverThreshold
		}
	}

	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
}

// applyEnv overrides values from DRAWFLOW_* environment variables
func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("DRAWFLOW_HOST"); ok {
		config.Server.Host = v
	}
	if v, ok := lookup("DRAWFLOW_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DRAWFLOW_PORT: %w", err)
		}
		config.Server.Port = port
	}
	if v, ok := lookup("DRAWFLOW_GRAPH"); ok {
		config.Server.Graph = v
	}
	if v, ok := lookup("DRAWFLOW_STORE_DIR"); ok {
		config.Store.Driver = "file"
		config.Store.Dir = v
	}
	if v, ok := lookup("DRAWFLOW_DATABASE_URL"); ok {
		config.Store.Driver = "postgres"
		config.Store.DSN = v
	}
	if v, ok := lookup("DRAWFLOW_LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case "file":
		if c.Store.Dir == "" {
			return errors.New("config: file store needs a dir")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("config: postgres store needs a dsn")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 || c.Canvas.GrowthStep < 0 || c.Canvas.GrowthMargin < 0 {
		return errors.New("config: canvas dimensions must not be negative")
	}
	if c.Canvas.HoverThreshold < 0 {
		return errors.New("config: hover threshold must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CanvasOptions converts the canvas section for canvas.New. Logger and
// OnChange are left for the caller.
func (c *Config) CanvasOptions() canvas.Options {
	return canvas.Options{
		Origin:         geometry.Point{X: c.Canvas.OriginX, Y: c.Canvas.OriginY},
		Width:          c.Canvas.Width,
		Height:         c.Canvas.Height,
		GrowthMargin:   c.Canvas.GrowthMargin,
		GrowthStep:     c.Canvas.GrowthStep,
		HoverThreshold: c.Canvas.HoverThreshold,
	}
}
