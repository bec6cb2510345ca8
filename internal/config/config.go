package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Default values shared by the CLI flags and DefaultConfig.
const (
	DefaultSeed    int64 = 42
	DefaultMaxLen        = 1000
	DefaultOverlap       = 3
)

// Review policies applied when a fully labeled input is revised.
const (
	// ReviewReplace keeps only the records decided during the review pass.
	ReviewReplace = "replace"
	// ReviewPreserve carries untouched prior records over unchanged.
	ReviewPreserve = "preserve"
)

// Config holds all sentlabel configuration.
type Config struct {
	Seed   int64 `yaml:"seed"`
	MaxLen int   `yaml:"max_len"`

	// Reserved for multi-annotator agreement sampling.
	LabelingOverlap int `yaml:"LABELING_OVERLAP"`

	Dirs    DirsConfig    `yaml:"dirs"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
}

// DirsConfig is the on-disk workspace layout.
type DirsConfig struct {
	Inputs        string `yaml:"inputs"`
	Outputs       string `yaml:"outputs"`
	Logs          string `yaml:"logs"`
	Reports       string `yaml:"reports"`
	OutputsMerged string `yaml:"outputs_merged"`
	Resources     string `yaml:"resources"`
}

// LoggingConfig configures the diagnostic logger (not the session log).
type LoggingConfig struct {
	Level      string          `yaml:"level"` // debug, info, warn, error
	File       string          `yaml:"file"`  // relative to dirs.logs
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// SessionConfig tunes the labeling loop.
type SessionConfig struct {
	// FlushEachDecision rewrites the output file after every accepted or
	// undone decision so a killed process loses at most the current item.
	FlushEachDecision bool   `yaml:"flush_each_decision"`
	ReviewPolicy      string `yaml:"review_policy"` // replace, preserve
}

// UIConfig configures console rendering.
type UIConfig struct {
	Theme string `yaml:"theme"` // light, dark, auto
	Color bool   `yaml:"color"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Seed:            DefaultSeed,
		MaxLen:          DefaultMaxLen,
		LabelingOverlap: DefaultOverlap,

		Dirs: DirsConfig{
			Inputs:        "./inputs",
			Outputs:       "./outputs",
			Logs:          "./logs",
			Reports:       "./reports",
			OutputsMerged: "./outputs-merged",
			Resources:     "./resources",
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  "sentlabel.log",
		},

		Session: SessionConfig{
			FlushEachDecision: false,
			ReviewPolicy:      ReviewReplace,
		},

		UI: UIConfig{
			Theme: "auto",
			Color: true,
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDirDefaults()

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// fillDirDefaults restores defaults for directory keys a partial
// `dirs:` block left empty.
func (c *Config) fillDirDefaults() {
	d := DefaultConfig().Dirs
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&c.Dirs.Inputs, d.Inputs)
	fill(&c.Dirs.Outputs, d.Outputs)
	fill(&c.Dirs.Logs, d.Logs)
	fill(&c.Dirs.Reports, d.Reports)
	fill(&c.Dirs.OutputsMerged, d.OutputsMerged)
	fill(&c.Dirs.Resources, d.Resources)
}

// applyEnvOverrides applies environment variable overrides.
// Malformed numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SENTLABEL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = seed
		}
	}
	if v := os.Getenv("SENTLABEL_MAX_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxLen = n
		}
	}
	if v := os.Getenv("SENTLABEL_OUTPUTS_DIR"); v != "" {
		c.Dirs.Outputs = v
	}
	if v := os.Getenv("SENTLABEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.MaxLen <= 0 {
		return fmt.Errorf("%w: max_len must be positive, got %d", ErrInvalid, c.MaxLen)
	}
	if c.LabelingOverlap < 1 {
		return fmt.Errorf("%w: LABELING_OVERLAP must be at least 1, got %d", ErrInvalid, c.LabelingOverlap)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("%w: logging.level %q (valid: %v)", ErrInvalid, c.Logging.Level, ValidLogLevels)
	}

	switch c.Session.ReviewPolicy {
	case ReviewReplace, ReviewPreserve:
	default:
		return fmt.Errorf("%w: session.review_policy %q (valid: %s, %s)",
			ErrInvalid, c.Session.ReviewPolicy, ReviewReplace, ReviewPreserve)
	}

	switch c.UI.Theme {
	case "light", "dark", "auto":
	default:
		return fmt.Errorf("%w: ui.theme %q (valid: light, dark, auto)", ErrInvalid, c.UI.Theme)
	}

	return nil
}

// IsCategoryEnabled reports whether a logging category is enabled.
// Categories missing from the map are enabled.
func (l LoggingConfig) IsCategoryEnabled(category string) bool {
	if l.Categories == nil {
		return true
	}
	enabled, ok := l.Categories[category]
	if !ok {
		return true
	}
	return enabled
}
