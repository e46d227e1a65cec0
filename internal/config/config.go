// # internal/config/config.go
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  Engine  `toml:"engine"`
	Write   Write   `toml:"write"`
	Project Project `toml:"project"`
	Journal Journal `toml:"journal"`
}

type Engine struct {
	Default       string        `toml:"default"`
	GosymPaths    []string      `toml:"gosym_paths"`
	ProbeTimeout  time.Duration `toml:"probe_timeout"`
	InvokeTimeout time.Duration `toml:"invoke_timeout"`
}

type Write struct {
	MaxRetries int           `toml:"max_retries"`
	BaseDelay  time.Duration `toml:"base_delay"`
	Backup     *bool         `toml:"backup"` // nil defaults to true
}

type Project struct {
	Extensions  []string `toml:"extensions"`
	ExcludeDirs []string `toml:"exclude_dirs"`
}

type Journal struct {
	Path string `toml:"path"` // empty disables the journal
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Engine.Default == "" {
		c.Engine.Default = "auto"
	}
	if c.Engine.ProbeTimeout == 0 {
		c.Engine.ProbeTimeout = 5 * time.Second
	}
	if c.Engine.InvokeTimeout == 0 {
		c.Engine.InvokeTimeout = 30 * time.Second
	}

	if c.Write.MaxRetries == 0 {
		c.Write.MaxRetries = 3
	}
	if c.Write.BaseDelay == 0 {
		c.Write.BaseDelay = 100 * time.Millisecond
	}
	if c.Write.Backup == nil {
		t := true
		c.Write.Backup = &t
	}

	if len(c.Project.Extensions) == 0 {
		c.Project.Extensions = []string{".py", ".go", ".js", ".ts", ".java", ".rs"}
	}
	if len(c.Project.ExcludeDirs) == 0 {
		c.Project.ExcludeDirs = []string{".git", "node_modules", "__pycache__", "vendor", ".venv"}
	}
}
