package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, values map[string]any) string {
	t.Helper()
	b, err := yaml.Marshal(values)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "markclip.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.False(t, cfg.EmbedImages)
	assert.True(t, cfg.IncludeMetadata)
	assert.Equal(t, "auto", cfg.Parser)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, 8*time.Second, cfg.Image.Timeout)
	assert.Equal(t, int64(5<<20), cfg.Image.MaxBytes)
	assert.True(t, cfg.Image.UseCredentials)
	assert.Equal(t, 2*time.Second, cfg.Expand.Timeout)
	assert.Equal(t, 80*time.Millisecond, cfg.Expand.Interval)
	assert.True(t, cfg.Browser.Render)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, "info", cfg.Log.Level)

	opts := cfg.EmbedOptions()
	assert.True(t, opts.AllowedMIME.MatchString("IMAGE/png"))
	assert.False(t, opts.AllowedMIME.MatchString("text/html"))
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"parser":       "github-readme",
		"embed_images": true,
		"tags":         []string{"notes", "go"},
		"image":        map[string]any{"timeout": "3s", "concurrency": 4},
		"expand":       map[string]any{"interval": "20ms"},
		"browser":      map[string]any{"headless": false},
	})
	t.Setenv("MARKCLIP_PARSER", "medium")
	t.Setenv("MARKCLIP_IMAGE_MAX_BYTES", "1024")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "medium", cfg.Parser, "environment wins over the file")
	assert.True(t, cfg.EmbedImages)
	assert.Equal(t, []string{"notes", "go"}, cfg.Tags)
	assert.Equal(t, 3*time.Second, cfg.Image.Timeout)
	assert.Equal(t, int64(1024), cfg.Image.MaxBytes)
	assert.Equal(t, 4, cfg.Image.Concurrency)
	assert.Equal(t, 20*time.Millisecond, cfg.Expand.Interval)
	assert.False(t, cfg.Browser.Headless)

	exp := cfg.ExportOptions()
	assert.Equal(t, "medium", exp.Parser)
	assert.Equal(t, []string{"notes", "go"}, exp.Tags)
	assert.Equal(t, 20*time.Millisecond, cfg.TryHackMeOptions().ExpandInterval)
	assert.False(t, cfg.BrowserOptions().Headless)
}

func TestLoadMissingNamedFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := map[string]func(*Config){
		"format":      func(c *Config) { c.Format = "csv" },
		"timeout":     func(c *Config) { c.Image.Timeout = 0 },
		"max bytes":   func(c *Config) { c.Image.MaxBytes = -1 },
		"concurrency": func(c *Config) { c.Image.Concurrency = -2 },
		"mime":        func(c *Config) { c.Image.AllowedMIME = "(" },
		"expand":      func(c *Config) { c.Expand.Interval = 0 },
		"browser":     func(c *Config) { c.Browser.Timeout = 0 },
		"log level":   func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
