// Package config loads lattice-edit settings from defaults, a YAML file,
// LATTICE_EDIT_* environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "LATTICE_EDIT"
	FileName  = ".lattice-edit.yaml"

	BackendBrowser = "browser"
	BackendGemini  = "gemini"
)

type Config struct {
	Backend string        `mapstructure:"backend" yaml:"backend"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Gemini  GeminiConfig  `mapstructure:"gemini" yaml:"gemini"`
	Context ContextConfig `mapstructure:"context" yaml:"context"`
	Apply   ApplyConfig   `mapstructure:"apply" yaml:"apply"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type BrowserConfig struct {
	Model        string        `mapstructure:"model" yaml:"model"`
	Headless     bool          `mapstructure:"headless" yaml:"headless"`
	NoSandbox    bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	ExecPath     string        `mapstructure:"exec_path" yaml:"exec_path,omitempty"`
	UserDataDir  string        `mapstructure:"user_data_dir" yaml:"user_data_dir,omitempty"`
	ScriptURL    string        `mapstructure:"script_url" yaml:"script_url"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" yaml:"-"`
}

// MarshalYAML writes ready_timeout as a duration string instead of nanoseconds.
func (b BrowserConfig) MarshalYAML() (any, error) {
	type plain BrowserConfig
	return struct {
		plain        `yaml:",inline"`
		ReadyTimeout string `yaml:"ready_timeout"`
	}{plain(b), b.ReadyTimeout.String()}, nil
}

type GeminiConfig struct {
	Model      string `mapstructure:"model" yaml:"model"`
	MemorySize int    `mapstructure:"memory_size" yaml:"memory_size"`
}

type ContextConfig struct {
	// Ignore lists extra file or directory names to leave out of the context.
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

type ApplyConfig struct {
	AllowOutsideRoot bool `mapstructure:"allow_outside_root" yaml:"allow_outside_root"`
	// Clipboard overrides the clipboard commands, e.g. "wl-copy".
	Clipboard []string `mapstructure:"clipboard" yaml:"clipboard,omitempty"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
	Dir   string `mapstructure:"dir" yaml:"dir,omitempty"`
}

func Default() Config {
	return Config{
		Backend: BackendBrowser,
		Browser: BrowserConfig{
			Model:        "gpt-4o",
			Headless:     true,
			ScriptURL:    "https://js.puter.com/v2/",
			ReadyTimeout: 60 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:      "gemini-2.5-pro",
			MemorySize: 10000,
		},
		Context: ContextConfig{Ignore: []string{}},
		Log:     LogConfig{Level: "warn"},
	}
}

// NewViper returns a viper instance seeded with defaults and bound to the
// LATTICE_EDIT_* environment.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("browser.model", d.Browser.Model)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.no_sandbox", d.Browser.NoSandbox)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.script_url", d.Browser.ScriptURL)
	v.SetDefault("browser.ready_timeout", d.Browser.ReadyTimeout)
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("gemini.memory_size", d.Gemini.MemorySize)
	v.SetDefault("context.ignore", d.Context.Ignore)
	v.SetDefault("apply.allow_outside_root", false)
	v.SetDefault("apply.clipboard", []string{})
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.dir", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("log.debug", EnvPrefix+"_DEBUG")
	return v
}

// SearchPaths lists candidate config files, most specific first.
func SearchPaths(workdir string) []string {
	paths := []string{filepath.Join(workdir, FileName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, FileName),
			filepath.Join(home, ".config", "lattice-edit.yaml"),
		)
	}
	return paths
}

// Load reads the config file (explicit path, or the first found in
// SearchPaths) into v and decodes the merged result. It returns the file used,
// or "" when running on defaults.
func Load(v *viper.Viper, path, workdir string) (*Config, string, error) {
	if path == "" {
		for _, candidate := range SearchPaths(workdir) {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("failed to read config file: %w", err)
			}
			path = ""
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBrowser, BackendGemini:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendBrowser, BackendGemini)
	}
	if c.Browser.ReadyTimeout <= 0 {
		return fmt.Errorf("browser.ready_timeout must be positive, got %s", c.Browser.ReadyTimeout)
	}
	if c.Backend == BackendBrowser && strings.TrimSpace(c.Browser.Model) == "" {
		return errors.New("browser.model cannot be empty")
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from workdir/.env without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(workdir string) error {
	path := filepath.Join(workdir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

var ErrExists = errors.New("config file already exists")

// WriteDefault writes the default configuration as YAML to path.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
