package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

var validate = validator.New()

// StoreConfig selects the series store.
type StoreConfig struct {
	// Backend is "memory" (a fresh store per recipe or request) or "badger"
	// (one shared store for the lifetime of the app).
	Backend  string `yaml:"backend" validate:"oneof=memory badger"`
	Path     string `yaml:"path" validate:"required_if=Backend badger InMemory false"`
	InMemory bool   `yaml:"in_memory"`
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogLevel   string      `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string      `yaml:"log_format" validate:"oneof=text json"`
	FillPolicy string      `yaml:"fill_policy" validate:"oneof=zero_fill interpolate_missing"`
	ListenAddr string      `yaml:"listen_addr" validate:"required,hostname_port"`
	Store      StoreConfig `yaml:"store"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		LogFormat:  "text",
		FillPolicy: "interpolate_missing",
		ListenAddr: ":8080",
		Store:      StoreConfig{Backend: StoreMemory},
	}
}

// LoadConfigFile reads a YAML config file on top of base. Keys missing from
// the file keep their value from base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// NewConfig normalizes and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.FillPolicy = strings.TrimSpace(cfg.FillPolicy)
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fieldMessage(fe)
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value())
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", fe.Namespace(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag())
	}
}
