// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidOrdering is returned for an order other than defined or random.
	ErrInvalidOrdering = errors.New("invalid order")
	// ErrInvalidColor is returned for a color mode other than auto, always or never.
	ErrInvalidColor = errors.New("invalid color mode")
)

// Limits mirrors serialize.Limits with file keys.
type Limits struct {
	MaxDepth        int `yaml:"max_depth"`
	MaxArraySize    int `yaml:"max_array_size"`
	MaxHashSize     int `yaml:"max_hash_size"`
	MaxStringLength int `yaml:"max_string_length"`
	MaxFields       int `yaml:"max_fields"`
}

// Config holds the application configuration
type Config struct {
	Limits   Limits `yaml:"limits"`
	Output   string `yaml:"output"`
	Ordering string `yaml:"order"`
	Seed     int64  `yaml:"seed"`
	Color    string `yaml:"color"`

	// Source is the config file that was read, empty when none was.
	Source string `yaml:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	l := serialize.DefaultLimits()

	return &Config{
		Limits: Limits{
			MaxDepth:        l.MaxDepth,
			MaxArraySize:    l.MaxSequenceSize,
			MaxHashSize:     l.MaxMappingSize,
			MaxStringLength: l.MaxStringLength,
			MaxFields:       l.MaxFields,
		},
		Output:   DefaultOutput,
		Ordering: DefaultOrdering,
		Color:    ColorAuto,
	}
}

// Load reads configuration from defaults, the optional YAML file at path,
// then environment variables and .env file.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by the operator
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	c.Source = path

	return nil
}

func (c *Config) applyEnv() error {
	ints := []struct {
		key    string
		target *int
	}{
		{"MAX_DEPTH", &c.Limits.MaxDepth},
		{"MAX_ARRAY_SIZE", &c.Limits.MaxArraySize},
		{"MAX_HASH_SIZE", &c.Limits.MaxHashSize},
		{"MAX_STRING_LENGTH", &c.Limits.MaxStringLength},
		{"MAX_FIELDS", &c.Limits.MaxFields},
	}

	for _, v := range ints {
		raw := getEnv(EnvPrefix+v.key, "")
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, v.key, err)
		}

		*v.target = n
	}

	c.Output = getEnv(EnvPrefix+"OUTPUT", c.Output)
	c.Ordering = getEnv(EnvPrefix+"ORDER", c.Ordering)
	c.Color = getEnv(EnvPrefix+"COLOR", c.Color)

	if raw := getEnv(EnvPrefix+"SEED", ""); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED: %w", EnvPrefix, err)
		}

		c.Seed = seed
	}

	return nil
}

// Validate normalizes and checks the enumerated settings.
func (c *Config) Validate() error {
	c.Ordering = strings.ToLower(strings.TrimSpace(c.Ordering))
	if c.Ordering == "" {
		c.Ordering = DefaultOrdering
	}

	if c.Ordering != "defined" && c.Ordering != "random" {
		return fmt.Errorf("%w: %q", ErrInvalidOrdering, c.Ordering)
	}

	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
	if c.Color == "" {
		c.Color = ColorAuto
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Color)
	}

	return nil
}

// SerializeLimits converts the configured caps, defaulting non-positive ones.
func (c *Config) SerializeLimits() serialize.Limits {
	return serialize.Limits{
		MaxDepth:        c.Limits.MaxDepth,
		MaxSequenceSize: c.Limits.MaxArraySize,
		MaxMappingSize:  c.Limits.MaxHashSize,
		MaxStringLength: c.Limits.MaxStringLength,
		MaxFields:       c.Limits.MaxFields,
	}.WithDefaults()
}

// ResolveSeed returns the configured seed, or a time-derived one when unset.
func (c *Config) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}

	return time.Now().UnixNano() % 100000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	sourceDisplay := c.Source
	if sourceDisplay == "" {
		sourceDisplay = "(defaults and environment)"
	}

	seedDisplay := "(random per run)"
	if c.Seed != 0 {
		seedDisplay = strconv.FormatInt(c.Seed, 10)
	}

	l := c.SerializeLimits()

	return fmt.Sprintf(`Current Configuration:
======================
Source:            %s
Max Depth:         %d
Max Array Size:    %d
Max Hash Size:     %d
Max String Length: %d
Max Fields:        %d
Output:            %s
Order:             %s
Seed:              %s
Color:             %s`,
		sourceDisplay,
		l.MaxDepth,
		l.MaxSequenceSize,
		l.MaxMappingSize,
		l.MaxStringLength,
		l.MaxFields,
		c.Output,
		c.Ordering,
		seedDisplay,
		c.Color,
	)
}
