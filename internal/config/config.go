// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries every runtime setting the tool reads.
type Config struct {
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	ModelFile         string   `mapstructure:"MODEL_FILE"`
	PropsFile         string   `mapstructure:"PROPS_FILE"`
	TermsFile         string   `mapstructure:"TERMS_FILE"`
	LegacyValuesFile  string   `mapstructure:"LEGACY_VALUES_FILE"`
	OutputDir         string   `mapstructure:"OUTPUT_DIR"`
	MatchCutoff       float64  `mapstructure:"MATCH_CUTOFF"`
	SingletonEntities []string `mapstructure:"SINGLETON_ENTITIES"`
	InventoryPatterns []string `mapstructure:"INVENTORY_PATTERNS"`
}

// Load assembles the configuration from defaults, the optional .env
// file, and the environment, in ascending precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OUTPUT_DIR", "output")
	v.SetDefault("MATCH_CUTOFF", 0.6)
	v.SetDefault("SINGLETON_ENTITIES", "Program,Dataset")
	v.SetDefault("INVENTORY_PATTERNS", "*.dcm,*.dicom")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("MODEL_FILE")
	v.BindEnv("PROPS_FILE")
	v.BindEnv("TERMS_FILE")
	v.BindEnv("LEGACY_VALUES_FILE")
	v.BindEnv("OUTPUT_DIR")
	v.BindEnv("MATCH_CUTOFF")
	v.BindEnv("SINGLETON_ENTITIES")
	v.BindEnv("INVENTORY_PATTERNS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.SingletonEntities == nil {
		cfg.SingletonEntities = splitList(v.GetString("SINGLETON_ENTITIES"))
	}
	if cfg.InventoryPatterns == nil {
		cfg.InventoryPatterns = splitList(v.GetString("INVENTORY_PATTERNS"))
	}

	return cfg, nil
}

// IsDev reports whether the tool runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether the tool runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasPrimarySchema reports whether all three structured model documents
// are configured.
func (c *Config) HasPrimarySchema() bool {
	return c.ModelFile != "" && c.PropsFile != "" && c.TermsFile != ""
}

// Validate checks that the configuration can actually drive a run: a
// usable schema source, a sane matcher cutoff, and somewhere to write.
func (c *Config) Validate() error {
	if c.MatchCutoff <= 0 || c.MatchCutoff > 1 {
		return fmt.Errorf("MATCH_CUTOFF must be in (0, 1], got %v", c.MatchCutoff)
	}
	partial := c.ModelFile != "" || c.PropsFile != "" || c.TermsFile != ""
	if partial && !c.HasPrimarySchema() {
		return fmt.Errorf("MODEL_FILE, PROPS_FILE and TERMS_FILE must all be set together")
	}
	if !c.HasPrimarySchema() && c.LegacyValuesFile == "" {
		return fmt.Errorf("either MODEL_FILE, PROPS_FILE and TERMS_FILE or LEGACY_VALUES_FILE must be set")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
