package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/harrison-m-freitas/MarkClip/internal/browser"
	"github.com/harrison-m-freitas/MarkClip/internal/embed"
	"github.com/harrison-m-freitas/MarkClip/internal/export"
	"github.com/harrison-m-freitas/MarkClip/internal/formatter"
	"github.com/harrison-m-freitas/MarkClip/internal/sites/tryhackme"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. MARKCLIP_EMBED_IMAGES.
const EnvPrefix = "MARKCLIP"

// Config stores all configuration for the application.
type Config struct {
	EmbedImages     bool          `mapstructure:"embed_images"`
	IncludeMetadata bool          `mapstructure:"include_metadata"`
	Parser          string        `mapstructure:"parser"`
	Tags            []string      `mapstructure:"tags"`
	Format          string        `mapstructure:"format"`
	Image           ImageConfig   `mapstructure:"image"`
	Expand          ExpandConfig  `mapstructure:"expand"`
	Browser         BrowserConfig `mapstructure:"browser"`
	Log             LogConfig     `mapstructure:"log"`
}

type ImageConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxBytes       int64         `mapstructure:"max_bytes"`
	AllowedMIME    string        `mapstructure:"allowed_mime"`
	UseCredentials bool          `mapstructure:"use_credentials"`
	Concurrency    int           `mapstructure:"concurrency"`
}

type ExpandConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

type BrowserConfig struct {
	Render   bool          `mapstructure:"render"`
	Headless bool          `mapstructure:"headless"`
	Proxy    string        `mapstructure:"proxy"`
	Stealth  bool          `mapstructure:"stealth"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("markclip")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/markclip")
	return v
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("embed_images", false)
	v.SetDefault("include_metadata", true)
	v.SetDefault("parser", "auto")
	v.SetDefault("tags", []string{})
	v.SetDefault("format", formatter.FormatMarkdown)

	v.SetDefault("image.timeout", embed.DefaultTimeout)
	v.SetDefault("image.max_bytes", embed.DefaultMaxBytes)
	v.SetDefault("image.allowed_mime", embed.DefaultAllowedMIME.String())
	v.SetDefault("image.use_credentials", true)
	v.SetDefault("image.concurrency", 0)

	def := tryhackme.DefaultOptions()
	v.SetDefault("expand.timeout", def.ExpandTimeout)
	v.SetDefault("expand.interval", def.ExpandInterval)

	v.SetDefault("browser.render", true)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
}

// Load reads the config file, if any, and decodes v. file overrides the
// search path; a missing file is only an error when it was named.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if !formatter.Valid(c.Format) {
		return fmt.Errorf("invalid output format: %s (want one of %s)", c.Format, strings.Join(formatter.Formats, ", "))
	}
	if c.Image.Timeout <= 0 {
		return fmt.Errorf("image.timeout must be positive, got %s", c.Image.Timeout)
	}
	if c.Image.MaxBytes <= 0 {
		return fmt.Errorf("image.max_bytes must be positive, got %d", c.Image.MaxBytes)
	}
	if c.Image.Concurrency < 0 {
		return fmt.Errorf("image.concurrency must not be negative, got %d", c.Image.Concurrency)
	}
	if _, err := regexp.Compile(c.Image.AllowedMIME); err != nil {
		return fmt.Errorf("invalid image.allowed_mime: %w", err)
	}
	if c.Expand.Timeout <= 0 || c.Expand.Interval <= 0 {
		return fmt.Errorf("expand.timeout and expand.interval must be positive")
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("browser.timeout must be positive, got %s", c.Browser.Timeout)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// EmbedOptions converts the image settings. Call after Validate.
func (c *Config) EmbedOptions() embed.Options {
	opts := embed.Options{
		Timeout:        c.Image.Timeout,
		MaxBytes:       c.Image.MaxBytes,
		UseCredentials: c.Image.UseCredentials,
		Concurrency:    c.Image.Concurrency,
	}
	if re, err := regexp.Compile(c.Image.AllowedMIME); err == nil {
		opts.AllowedMIME = re
	}
	return opts
}

// ExportOptions converts the export settings.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		EmbedImages:     c.EmbedImages,
		IncludeMetadata: c.IncludeMetadata,
		Parser:          c.Parser,
		Tags:            c.Tags,
	}
}

// TryHackMeOptions converts the expansion settings.
func (c *Config) TryHackMeOptions() tryhackme.Options {
	return tryhackme.Options{ExpandTimeout: c.Expand.Timeout, ExpandInterval: c.Expand.Interval}
}

// BrowserOptions converts the browser settings.
func (c *Config) BrowserOptions() browser.Config {
	return browser.Config{
		Headless: c.Browser.Headless,
		ProxyURL: c.Browser.Proxy,
		Stealth:  c.Browser.Stealth,
	}
}
