package config

import (
	"strings"
	"time"
)

// ApplyNamingDefaults fills in zero-valued NamingConfig fields.
func ApplyNamingDefaults(cfg *NamingConfig) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.ServiceAddr == "" {
		cfg.ServiceAddr = ":8100"
	}
	if cfg.RegistrationAddr == "" {
		cfg.RegistrationAddr = ":8101"
	}
	if cfg.ReplicationThreshold == 0 {
		cfg.ReplicationThreshold = 20
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// ApplyStorageDefaults fills in zero-valued StorageConfig fields.
func ApplyStorageDefaults(cfg *StorageConfig) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.Root == "" {
		cfg.Root = "/tmp/dnfs-storage"
	}
	if cfg.StorageAddr == "" {
		cfg.StorageAddr = ":8200"
	}
	if cfg.CommandAddr == "" {
		cfg.CommandAddr = ":8201"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
}
