package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Gateway     GatewayConfig     `toml:"gateway"`
	Cache       CacheConfig       `toml:"cache"`
	Matcher     MatcherConfig     `toml:"matcher"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// GatewayConfig contains request handling, retry, and backoff settings.
type GatewayConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	NetworkRetries    int     `toml:"network_retries"`
	ThrottleRetries   int     `toml:"throttle_retries"`
	BackoffBaseMS     int     `toml:"backoff_base_ms"`
	BackoffCapSeconds int     `toml:"backoff_cap_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CacheConfig contains response cache settings.
//
// Shapes enumerate which request shapes are eligible for caching. A
// mutating request shape must never be listed.
type CacheConfig struct {
	Enabled         bool          `toml:"enabled"`
	Path            string        `toml:"path"`
	DefaultTTLHours int           `toml:"default_ttl_hours"`
	Shapes          []ShapeConfig `toml:"shape"`
}

// ShapeConfig identifies one cacheable request shape by method and path prefix.
//
// TTLHours of 0 falls back to the cache-wide default.
type ShapeConfig struct {
	Method   string `toml:"method"`
	Prefix   string `toml:"prefix"`
	TTLHours int    `toml:"ttl_hours"`
}

// MatcherConfig contains the tier ladder and fallback behaviour for the catalog matcher.
type MatcherConfig struct {
	Tiers               []TierConfig `toml:"tier"`
	Fallback            []string     `toml:"fallback"`
	QueryShapes         [][]string   `toml:"query_shapes"`
	LastResort          string       `toml:"last_resort"`
	AllowKaraoke        bool         `toml:"allow_karaoke"`
	AlbumTitleThreshold float64      `toml:"album_title_threshold"`
	ResultLimit         int          `toml:"result_limit"`
}

// TierConfig is one strictness level of the matching algorithm.
type TierConfig struct {
	Name                   string  `toml:"name"`
	LengthToleranceSeconds int     `toml:"length_tolerance_seconds"`
	NameOverlapThreshold   float64 `toml:"name_overlap_threshold"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory and process environment variables
// override credential fields, so secrets can stay out of config.toml.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate checks the configuration for values the gateway and matcher cannot run with.
func (c *Config) Validate() error {
	if len(c.Matcher.Tiers) == 0 {
		return fmt.Errorf("%w: matcher requires at least one tier", ErrInvalidConfig)
	}

	names := make(map[string]bool, len(c.Matcher.Tiers))
	for _, tier := range c.Matcher.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("%w: tier missing name", ErrInvalidConfig)
		}
		if names[tier.Name] {
			return fmt.Errorf("%w: duplicate tier %q", ErrInvalidConfig, tier.Name)
		}
		names[tier.Name] = true
	}

	for _, name := range c.Matcher.Fallback {
		if !names[name] {
			return fmt.Errorf("%w: fallback references unknown tier %q", ErrInvalidConfig, name)
		}
	}

	switch c.Matcher.LastResort {
	case "", "return-none", "return-best":
	default:
		return fmt.Errorf("%w: last_resort must be return-none or return-best, got %q", ErrInvalidConfig, c.Matcher.LastResort)
	}

	for _, shape := range c.Cache.Shapes {
		if shape.Method != "GET" {
			return fmt.Errorf("%w: cacheable shape %s %s is not a read", ErrInvalidConfig, shape.Method, shape.Prefix)
		}
	}

	return nil
}
