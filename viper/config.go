// Package viper loads csvstory configuration from file, environment and
// defaults using spf13/viper.
package viper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/csvstory"
	spfviper "github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CSVSTORY_BACKEND_URL.
const EnvPrefix = "CSVSTORY"

// Config is the csvstory configuration.
type Config struct {
	BackendURL     string `mapstructure:"backend_url" yaml:"backend_url"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string `mapstructure:"log_format" yaml:"log_format"`
	Theme          string `mapstructure:"theme" yaml:"theme"`
	DownloadDir    string `mapstructure:"download_dir" yaml:"download_dir"`
	JournalPath    string `mapstructure:"journal_path" yaml:"journal_path"`
	CacheDir       string `mapstructure:"cache_dir" yaml:"cache_dir"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`

	Form FormConfig `mapstructure:"form" yaml:"form"`
}

// FormConfig overrides the initial form values.
type FormConfig struct {
	Method     string   `mapstructure:"method" yaml:"method"`
	KIQR       float64  `mapstructure:"k_iqr" yaml:"k_iqr"`
	ZThr       float64  `mapstructure:"z_thr" yaml:"z_thr"`
	MADThr     float64  `mapstructure:"mad_thr" yaml:"mad_thr"`
	MinN       int      `mapstructure:"min_n" yaml:"min_n"`
	IsoFrac    float64  `mapstructure:"iso_frac" yaml:"iso_frac"`
	ChartTheme string   `mapstructure:"chart_theme" yaml:"chart_theme"`
	TopN       int      `mapstructure:"top_n" yaml:"top_n"`
	ChartTypes []string `mapstructure:"chart_types" yaml:"chart_types"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	f := csvstory.DefaultForm()
	return &Config{
		BackendURL:     "http://127.0.0.1:5000",
		HTTPTimeoutSec: 300,
		LogLevel:       "info",
		LogFormat:      "text",
		Theme:          "dark",
		DownloadDir:    ".",
		Workers:        4,
		Form: FormConfig{
			Method:     f.Method,
			KIQR:       f.KIQR,
			ZThr:       f.ZThr,
			MADThr:     f.MADThr,
			MinN:       f.MinN,
			IsoFrac:    f.IsoFrac,
			ChartTheme: f.Sequence.Theme,
			TopN:       f.Sequence.TopN,
			ChartTypes: f.Templates.ChartTypes,
		},
	}
}

// DefaultPath returns ~/.config/csvstory/config.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "csvstory", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "csvstory", "config.yaml"), nil
}

// form.k_iqr reads from CSVSTORY_FORM_K_IQR.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. An explicit cfgFile must exist;
// the default file is optional.
func Load(cfgFile string) (*Config, error) {
	v := spfviper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("http_timeout_sec", d.HTTPTimeoutSec)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("download_dir", d.DownloadDir)
	v.SetDefault("journal_path", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("workers", d.Workers)
	v.SetDefault("form.method", d.Form.Method)
	v.SetDefault("form.k_iqr", d.Form.KIQR)
	v.SetDefault("form.z_thr", d.Form.ZThr)
	v.SetDefault("form.mad_thr", d.Form.MADThr)
	v.SetDefault("form.min_n", d.Form.MinN)
	v.SetDefault("form.iso_frac", d.Form.IsoFrac)
	v.SetDefault("form.chart_theme", d.Form.ChartTheme)
	v.SetDefault("form.top_n", d.Form.TopN)
	v.SetDefault("form.chart_types", d.Form.ChartTypes)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	if c.HTTPTimeoutSec < 0 {
		return fmt.Errorf("http_timeout_sec must not be negative, got %d", c.HTTPTimeoutSec)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// HTTPTimeout returns the request timeout; zero disables it.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// ApplyForm returns f with the configured form overrides applied.
func (c *Config) ApplyForm(f csvstory.Form) csvstory.Form {
	fc := c.Form
	if fc.Method != "" {
		f.Method = fc.Method
	}
	if fc.KIQR > 0 {
		f.KIQR = fc.KIQR
	}
	if fc.ZThr > 0 {
		f.ZThr = fc.ZThr
	}
	if fc.MADThr > 0 {
		f.MADThr = fc.MADThr
	}
	if fc.MinN > 0 {
		f.MinN = fc.MinN
	}
	if fc.IsoFrac > 0 {
		f.IsoFrac = fc.IsoFrac
	}
	if fc.ChartTheme != "" {
		f.Sequence.Theme = fc.ChartTheme
		f.Templates.Theme = fc.ChartTheme
	}
	if fc.TopN > 0 {
		f.Sequence.TopN = fc.TopN
		f.Templates.TopN = fc.TopN
	}
	if len(fc.ChartTypes) > 0 {
		f.Templates.ChartTypes = append([]string(nil), fc.ChartTypes...)
	}
	return f
}

// Save writes c as YAML to path, creating the directory if necessary.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal returns c encoded as YAML.
func Marshal(c *Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}
