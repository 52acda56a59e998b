// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	Browser      BrowserConfig      `mapstructure:"browser" yaml:"browser"`
	Recording    RecordingConfig    `mapstructure:"recording" yaml:"recording"`
	Segmentation SegmentationConfig `mapstructure:"segmentation" yaml:"segmentation"`
	Classifier   ClassifierConfig   `mapstructure:"classifier" yaml:"classifier"`
	Synthesis    SynthesisConfig    `mapstructure:"synthesis" yaml:"synthesis"`
	Export       ExportConfig       `mapstructure:"export" yaml:"export"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "CASEFORGE"

// Supported browser engines.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// BrowserConfig holds settings for the recorded browser.
type BrowserConfig struct {
	Engine            string         `mapstructure:"engine" yaml:"engine"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	InterceptRequests bool           `mapstructure:"intercept_requests" yaml:"intercept_requests"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	IdleQuietPeriod   time.Duration  `mapstructure:"idle_quiet_period" yaml:"idle_quiet_period"`
}

// ViewportConfig is the initial window size.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// RecordingConfig tunes the capture session.
type RecordingConfig struct {
	// LoginTimeout bounds each login candidate attempt.
	LoginTimeout         time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	LoginAttemptInterval time.Duration `mapstructure:"login_attempt_interval" yaml:"login_attempt_interval"`
	ShowIndicator        bool          `mapstructure:"show_indicator" yaml:"show_indicator"`
	MaxTextLength        int           `mapstructure:"max_text_length" yaml:"max_text_length"`
}

// SegmentationConfig holds the heuristics used to split an interaction stream.
type SegmentationConfig struct {
	GapThreshold      time.Duration `mapstructure:"gap_threshold" yaml:"gap_threshold"`
	SplitOnKindChange bool          `mapstructure:"split_on_kind_change" yaml:"split_on_kind_change"`
}

// ClassifierConfig configures the intent classifier.
type ClassifierConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	Smoothing     float64 `mapstructure:"smoothing" yaml:"smoothing"`
	CacheSize     int     `mapstructure:"cache_size" yaml:"cache_size"`
}

// SynthesisConfig configures test case synthesis.
type SynthesisConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// ExportConfig configures where exported files land.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "caseforge")
	v.SetDefault("logger.log_file", "caseforge.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	// Recording is interactive, so the window is visible by default.
	v.SetDefault("browser.engine", EngineChromedp)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", true)
	v.SetDefault("browser.intercept_requests", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1366)
	v.SetDefault("browser.viewport.height", 768)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.idle_quiet_period", "500ms")

	// -- Recording --
	v.SetDefault("recording.login_timeout", "5s")
	v.SetDefault("recording.login_attempt_interval", "200ms")
	v.SetDefault("recording.show_indicator", true)
	v.SetDefault("recording.max_text_length", 100)

	// -- Segmentation --
	v.SetDefault("segmentation.gap_threshold", "5s")
	v.SetDefault("segmentation.split_on_kind_change", true)

	// -- Classifier --
	v.SetDefault("classifier.min_confidence", 0.5)
	v.SetDefault("classifier.smoothing", 0.1)
	v.SetDefault("classifier.cache_size", 512)

	// -- Synthesis --
	v.SetDefault("synthesis.concurrency", 4)

	// -- Export --
	v.SetDefault("export.output_dir", ".")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Environment overrides, e.g. CASEFORGE_BROWSER_ENGINE=rod.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves home directory references (~) in user-supplied paths.
// The stdout marker "-" is left alone.
func (c *Config) expandPaths() error {
	for key, path := range map[string]*string{
		"export.output_dir": &c.Export.OutputDir,
		"logger.log_file":   &c.Logger.LogFile,
	} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", key, err)
		}
		*path = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Browser.Engine) {
	case EngineChromedp, EngineRod:
	default:
		return fmt.Errorf("browser.engine must be one of %q or %q, got %q", EngineChromedp, EngineRod, c.Browser.Engine)
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Recording.LoginTimeout <= 0 {
		return fmt.Errorf("recording.login_timeout must be a positive duration")
	}
	if err := c.Segmentation.Validate(); err != nil {
		return fmt.Errorf("segmentation configuration invalid: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier configuration invalid: %w", err)
	}
	if c.Synthesis.Concurrency <= 0 {
		return fmt.Errorf("synthesis.concurrency must be a positive integer")
	}
	return nil
}

// Validate checks the segmentation heuristics.
func (s *SegmentationConfig) Validate() error {
	if s.GapThreshold < 0 {
		return fmt.Errorf("gap_threshold must not be negative")
	}
	return nil
}

// Validate checks the ClassifierConfig settings.
func (c *ClassifierConfig) Validate() error {
	if c.MinConfidence < 0.0 || c.MinConfidence > 1.0 {
		return fmt.Errorf("min_confidence must be between 0.0 and 1.0")
	}
	if c.Smoothing <= 0 {
		return fmt.Errorf("smoothing must be greater than 0")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	return nil
}
