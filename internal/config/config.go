package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/automatest/internal/schema"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "automatest.yaml"

// DefaultEnvFile is the dotenv file loaded before the environment overlay.
const DefaultEnvFile = ".env"

// Options controls where Resolve looks for configuration.
type Options struct {
	// ConfigPath is an explicit config file; it must exist when set.
	// When empty, DefaultFile is used if present.
	ConfigPath string
	// EnvFile is the dotenv file; a missing file is ignored.
	EnvFile string
	// Environ overrides os.Environ (for testing).
	Environ []string
}

// Parse decodes and schema-validates a YAML configuration document.
// An empty document yields an empty configuration.
func Parse(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc == nil {
		return &Config{}, nil
	}
	if err := schema.ValidateConfig(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses an automatest.yaml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadDotEnv loads variables from a dotenv file without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Resolve loads the dotenv file, the optional config file and the
// environment overlay, then applies defaults and validates the result.
// Returned warnings are non-fatal.
func Resolve(opts Options) (*Config, []string, error) {
	if err := LoadDotEnv(opts.EnvFile); err != nil {
		return nil, nil, err
	}

	cfg := &Config{}
	path := opts.ConfigPath
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	if err := ApplyEnv(cfg, environ); err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}
