// Package config loads pipeline settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every recognised option. Keys map one-to-one onto upper-case
// environment variables (source_container -> SOURCE_CONTAINER).
type Config struct {
	ProjectID           string   `mapstructure:"project_id"`
	SourceContainer     string   `mapstructure:"source_container"`
	SourcePrefix        string   `mapstructure:"source_prefix"`
	SourceSuffixes      []string `mapstructure:"source_suffixes"`
	RecordTable         string   `mapstructure:"record_table"`
	Region              string   `mapstructure:"region"`
	Workers             int      `mapstructure:"workers"`
	EntityLimit         int      `mapstructure:"entity_limit"`
	PreviewChars        int      `mapstructure:"preview_chars"`
	RawFallbackMaxLines int      `mapstructure:"raw_fallback_max_lines"`
	DedupByHash         bool     `mapstructure:"dedup_by_hash"`
	VertexOCRModel      string   `mapstructure:"vertex_ocr_model"`
	WorkflowID          string   `mapstructure:"workflow_id"`
	WorkflowLocation    string   `mapstructure:"workflow_location"`
	SQLitePath          string   `mapstructure:"sqlite_path"`
}

// SetDefaults registers the documented default for every key. Registering a
// default is also what lets AutomaticEnv pick the key up during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project_id", "")
	v.SetDefault("source_container", "medpal-uploads")
	v.SetDefault("source_prefix", "uploads/")
	v.SetDefault("source_suffixes", []string{".pdf"})
	v.SetDefault("record_table", "ocr-text-extraction")
	v.SetDefault("region", "us-central1")
	v.SetDefault("workers", 4)
	v.SetDefault("entity_limit", 15)
	v.SetDefault("preview_chars", 1000)
	v.SetDefault("raw_fallback_max_lines", 50)
	v.SetDefault("dedup_by_hash", false)
	v.SetDefault("vertex_ocr_model", "")
	v.SetDefault("workflow_id", "")
	v.SetDefault("workflow_location", "")
	v.SetDefault("sqlite_path", "docextract.db")
}

// New returns a Viper instance bound to the process environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return LoadWithViper(New())
}

// LoadWithViper unmarshals and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	var suffixes []string
	for _, s := range c.SourceSuffixes {
		for _, part := range strings.Split(s, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				suffixes = append(suffixes, part)
			}
		}
	}
	c.SourceSuffixes = suffixes
	if c.WorkflowLocation == "" {
		c.WorkflowLocation = c.Region
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.RecordTable == "" {
		return fmt.Errorf("RECORD_TABLE must not be empty")
	}
	if len(c.SourceSuffixes) == 0 {
		return fmt.Errorf("SOURCE_SUFFIXES must name at least one suffix")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.RawFallbackMaxLines < 1 {
		return fmt.Errorf("RAW_FALLBACK_MAX_LINES must be at least 1, got %d", c.RawFallbackMaxLines)
	}
	if c.PreviewChars < 0 || c.EntityLimit < 0 {
		return fmt.Errorf("PREVIEW_CHARS and ENTITY_LIMIT must not be negative")
	}
	return nil
}

// RequireProject returns an error when no GCP project is configured. Cloud
// entrypoints call it; the local CLI does not need a project.
func (c *Config) RequireProject() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return nil
}
