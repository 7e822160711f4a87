// Package config holds the single run configuration for parsegen. It is
// built once at startup from viper (flags, env, config file) and validated
// before any work starts.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/parsegen/pkg/llm"
)

// Defaults applied when neither flags, env nor config file set a value.
const (
	DefaultMaxAttempts   = 3
	DefaultExecTimeout   = 60 * time.Second
	DefaultCPUSeconds    = 30
	DefaultMemoryLimit   = "512MiB"
	DefaultOutputFormat  = "csv"
	DefaultDataDir       = "data"
	DefaultCandidatesDir = "custom_parsers"
	DefaultStateDir      = ".parsegen"
)

// Config is the explicit configuration object for a run.
type Config struct {
	Provider   string        `mapstructure:"provider" validate:"required"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	LLMTimeout time.Duration `mapstructure:"llm_timeout" validate:"gte=0"`

	DataDir       string `mapstructure:"data_dir" validate:"required"`
	CandidatesDir string `mapstructure:"candidates_dir" validate:"required"`
	StateDir      string `mapstructure:"state_dir"`

	MaxAttempts   int           `mapstructure:"max_attempts" validate:"gte=1,lte=20"`
	ExecTimeout   time.Duration `mapstructure:"exec_timeout" validate:"gt=0"`
	CPUSeconds    int           `mapstructure:"cpu_seconds" validate:"gte=0"`
	MemoryLimit   string        `mapstructure:"memory_limit"`
	InProcess     bool          `mapstructure:"in_process"`

	OutputFormat string  `mapstructure:"output_format" validate:"oneof=csv json jsonl yaml"`
	RelTol       float64 `mapstructure:"rtol" validate:"gte=0"`
	Journal      bool    `mapstructure:"journal"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("candidates_dir", DefaultCandidatesDir)
	v.SetDefault("state_dir", DefaultStateDir)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("exec_timeout", DefaultExecTimeout)
	v.SetDefault("cpu_seconds", DefaultCPUSeconds)
	v.SetDefault("memory_limit", DefaultMemoryLimit)
	v.SetDefault("output_format", DefaultOutputFormat)
	v.SetDefault("journal", true)
}

// Load unmarshals and validates the configuration held by v. When no API
// key was configured explicitly the provider's environment variable is used.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if cfg.OutputFormat == "yml" {
		cfg.OutputFormat = "yaml"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = llm.APIKeyFromEnv(cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = llm.GetDefaultModel(cfg.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the provider is known.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.MemoryLimitBytes(); err != nil {
		return fmt.Errorf("invalid config: memory_limit: %w", err)
	}
	if !llm.IsRegistered(c.Provider) {
		return fmt.Errorf("invalid config: unknown provider %q (available: %s)",
			c.Provider, strings.Join(llm.AvailableProviders(), ", "))
	}
	return nil
}

// ProviderConfig derives the LLM provider settings. The key is not checked
// here; a missing key surfaces when the provider is first used.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	pc := llm.DefaultProviderConfig()
	pc.APIKey = c.APIKey
	pc.BaseURL = c.BaseURL
	pc.Model = c.Model
	if c.LLMTimeout > 0 {
		pc.Timeout = c.LLMTimeout
	}
	return pc
}

// MemoryLimitBytes parses MemoryLimit ("512MiB", "1GB"). Empty or "0"
// means no limit.
func (c *Config) MemoryLimitBytes() (int64, error) {
	v := strings.TrimSpace(c.MemoryLimit)
	if v == "" || v == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, err
	}
	return int64(n), nil //#nosec G115 -- memory sizes fit in int64
}

// TargetDir is the directory holding the sample pair for target.
func (c *Config) TargetDir(target string) string {
	return filepath.Join(c.DataDir, target)
}

// OutputPath is where the materialised table for target is written.
func (c *Config) OutputPath(target string) string {
	return filepath.Join(c.TargetDir(target), target+"_parsed."+c.OutputFormat)
}

// JournalPath is the SQLite attempt journal location. Empty when the journal
// is disabled or no state dir is set.
func (c *Config) JournalPath() string {
	if !c.Journal || c.StateDir == "" {
		return ""
	}
	return filepath.Join(c.StateDir, "parsegen.db")
}
