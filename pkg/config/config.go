// Package config loads the naming server's and storage servers' runtime
// configuration from environment variables and an optional YAML file,
// following the same viper + validator layering the teacher repo uses for
// its own Config type.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig controls logging behavior, shared by both server configs.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// NamingConfig configures the naming server.
type NamingConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`

	// ServiceAddr is the well-known TCP address for the client-facing
	// Service interface.
	ServiceAddr string `mapstructure:"service_addr" validate:"required"`

	// RegistrationAddr is the well-known TCP address for the
	// storage-facing Registration interface.
	RegistrationAddr string `mapstructure:"registration_addr" validate:"required"`

	// ReplicationThreshold is loaded, defaulted to 20 and validated, but the
	// naming server does not read it: the lock manager triggers replication
	// on the fixed constant lockmanager.ReplicationThreshold (20), so
	// setting a different value here has no effect.
	ReplicationThreshold int `mapstructure:"replication_threshold" validate:"required,gt=0"`

	// MetricsAddr, if non-empty, is the address the Prometheus /metrics
	// endpoint listens on.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// DebugAddr, if non-empty, is the address the read-only /debug status
	// endpoint listens on.
	DebugAddr string `mapstructure:"debug_addr"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// StorageConfig configures a storage server.
type StorageConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`

	// Root is the local directory this server roots its files under.
	Root string `mapstructure:"root" validate:"required"`

	// StorageAddr is the well-known TCP address for the client-facing
	// Storage interface.
	StorageAddr string `mapstructure:"storage_addr" validate:"required"`

	// CommandAddr is the well-known TCP address for the naming-facing
	// Command interface.
	CommandAddr string `mapstructure:"command_addr" validate:"required"`

	// NamingRegistrationAddr is the naming server's Registration address,
	// dialed once at startup.
	NamingRegistrationAddr string `mapstructure:"naming_registration_addr" validate:"required"`

	MetricsAddr string `mapstructure:"metrics_addr"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// LoadNaming loads NamingConfig from file, environment, and defaults.
func LoadNaming(configPath string) (*NamingConfig, error) {
	v := newViper("naming", configPath)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg NamingConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal naming config: %w", err)
	}

	ApplyNamingDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("naming configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadStorage loads StorageConfig from file, environment, and defaults.
func LoadStorage(configPath string) (*StorageConfig, error) {
	v := newViper("storage", configPath)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg StorageConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal storage config: %w", err)
	}

	ApplyStorageDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("storage configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// newViper configures environment variable support and config file search,
// mirroring the teacher's setupViper.
func newViper(name, configPath string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DNFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName(name)
		v.SetConfigType("yaml")
	}
	return v
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDir returns $XDG_CONFIG_HOME/dnfs, falling back to ~/.config/dnfs
// and then the current directory.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dnfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dnfs")
}
