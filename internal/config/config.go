// Package config loads coderefine settings from defaults, a config file,
// the environment, and command-line flags (in increasing precedence).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sprite-ai/coderefine/internal/model"
)

// appName is the XDG directory name for config and state.
const appName = "coderefine"

// Config holds all configuration options for coderefine.
type Config struct {
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Analysis AnalysisConfig `koanf:"analysis" yaml:"analysis"`
	Session  SessionConfig  `koanf:"session" yaml:"session"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Check    CheckConfig    `koanf:"check" yaml:"check"`
}

// ServerConfig locates the remote analysis service.
type ServerConfig struct {
	BaseURL string `koanf:"base_url" yaml:"base_url"`
	Timeout int    `koanf:"timeout" yaml:"timeout"` // seconds
}

// AnalysisConfig holds request defaults.
type AnalysisConfig struct {
	Model    string `koanf:"model" yaml:"model"`
	Language string `koanf:"language" yaml:"language"`
}

// SessionConfig locates the persisted session state.
type SessionConfig struct {
	File string `koanf:"file" yaml:"file"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	File  string `koanf:"file" yaml:"file"`
}

// CheckConfig controls batch analysis.
type CheckConfig struct {
	Jobs int `koanf:"jobs" yaml:"jobs"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 90,
		},
		Analysis: AnalysisConfig{
			Language: "python",
		},
		Session: SessionConfig{
			File: defaultStateFile(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Check: CheckConfig{
			Jobs: 4,
		},
	}
}

func defaultStateFile() string {
	path, err := xdg.StateFile(filepath.Join(appName, "state.yaml"))
	if err != nil {
		return filepath.Join(xdg.StateHome, appName, "state.yaml")
	}
	return path
}

// RequestTimeout returns the server timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.Timeout) * time.Second
}

// Language returns the configured default language tag.
func (c *Config) Language() model.LanguageTag {
	return model.ParseLanguage(c.Analysis.Language)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.BaseURL)
	if c.Server.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.base_url %q is not an absolute URL", c.Server.BaseURL))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("server.timeout must be positive, got %d", c.Server.Timeout))
	}
	if !c.Language().Known() {
		errs = append(errs, fmt.Errorf("analysis.language %q is not supported", c.Analysis.Language))
	}
	if c.Check.Jobs < 1 {
		errs = append(errs, fmt.Errorf("check.jobs must be at least 1, got %d", c.Check.Jobs))
	}
	if c.Session.File == "" {
		errs = append(errs, errors.New("session.file must not be empty"))
	}

	return errors.Join(errs...)
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = yaml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched, in order, in the working directory.
var configNames = []string{
	"coderefine.yaml",
	"coderefine.yml",
	"coderefine.toml",
	"coderefine.json",
	".coderefine.yaml",
	".coderefine.yml",
}

// Discover returns the config file to use, or "" when none exists.
// An explicit path always wins; then the working directory; then
// $XDG_CONFIG_HOME/coderefine/config.yaml.
func Discover(explicit, workDir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		p := filepath.Join(workDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if p, err := xdg.SearchConfigFile(filepath.Join(appName, "config.yaml")); err == nil {
		return p
	}
	return ""
}

// Resolve discovers and loads the config file, applies environment
// overrides and validates the result. It returns the file it loaded
// ("" for defaults only).
func Resolve(explicit, workDir string) (*Config, string, error) {
	path := Discover(explicit, workDir)

	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return nil, path, err
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}
