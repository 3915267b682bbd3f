package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Git    GitConfig    `yaml:"git"`
	Lint   LintConfig   `yaml:"lint"`
	Guides GuidesConfig `yaml:"guides"`
}

type ServerConfig struct {
	// LogFile receives a copy of the log stream; stdout is reserved for
	// the protocol, so logs always go to stderr as well.
	LogFile string `yaml:"log_file"`
}

type GitConfig struct {
	Binary string `yaml:"binary"`
}

type LintConfig struct {
	Binary string `yaml:"binary"`
}

type GuidesConfig struct {
	// BaseDir overrides where the bundled markdown documents are
	// resolved from. Empty means the directory of the executable.
	BaseDir string `yaml:"base_dir"`
}

// Load reads the config file when it exists, then applies environment
// overrides and defaults. A missing file is not an error; the defaults
// alone form a working configuration.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config.loadFromEnv()
	config.applyDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if logFile := os.Getenv("COMMITMCP_LOG_FILE"); logFile != "" {
		c.Server.LogFile = logFile
	}
	if bin := os.Getenv("COMMITMCP_GIT_BINARY"); bin != "" {
		c.Git.Binary = bin
	}
	if bin := os.Getenv("COMMITMCP_LINT_BINARY"); bin != "" {
		c.Lint.Binary = bin
	}
	if dir := os.Getenv("COMMITMCP_GUIDES_DIR"); dir != "" {
		c.Guides.BaseDir = dir
	}
}

func (c *Config) applyDefaults() {
	if c.Server.LogFile == "" {
		c.Server.LogFile = "/tmp/commitmcp.log"
	}
	if c.Git.Binary == "" {
		c.Git.Binary = "git"
	}
	if c.Lint.Binary == "" {
		c.Lint.Binary = "commitlint"
	}
	// Guides.BaseDir stays empty here; the guides loader falls back to
	// the install location on its own.
}
