package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	SchemaVersion       = 1
	DefaultPath         = "/etc/deebotd/config.json"
	DefaultHTTPAddr     = "0.0.0.0:8080"
	DefaultDashboardDir = "/var/lib/deebotd/dashboards"
	DefaultAuthPrefix   = "deebotd/auth"
)

// Config is the daemon's root configuration document.
type Config struct {
	SchemaVersion int           `json:"schema_version"`
	Core          *CoreConfig   `json:"core"`
	Auth          *AuthConfig   `json:"auth"`
	Deebot        *DeebotConfig `json:"deebot"`
}

// CoreConfig covers the daemon's own listeners and asset paths.
type CoreConfig struct {
	HTTPAddr     string `json:"http_addr"`
	DashboardDir string `json:"dashboard_dir"`
}

// AuthConfig points at the blob store holding vendor login state.
type AuthConfig struct {
	BlobEndpoint      string `json:"blob_endpoint"`
	BlobBucket        string `json:"blob_bucket"`
	BlobPrefix        string `json:"blob_prefix"`
	BlobAccessKeyFile string `json:"blob_access_key_file"`
	BlobSecretKeyFile string `json:"blob_secret_key_file"`
	BlobInsecure      bool   `json:"blob_insecure"`
}

// DeebotConfig identifies one device and its broker endpoint.
type DeebotConfig struct {
	DeviceID       string `json:"device_id"`
	DeviceClass    string `json:"device_class"`
	Resource       string `json:"resource"`
	Company        string `json:"company"`
	Nickname       string `json:"nickname"`
	MQTTHost       string `json:"mqtt_host"`
	MQTTPort       int    `json:"mqtt_port"`
	MQTTUsername   string `json:"mqtt_username"`
	MQTTPassword   string `json:"mqtt_password"`
	MQTTDisableTLS bool   `json:"mqtt_disable_tls"`
}

// Load parses the JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err = Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core == nil {
		cfg.Core = &CoreConfig{}
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.DashboardDir == "" {
		cfg.Core.DashboardDir = DefaultDashboardDir
	}

	if cfg.Auth != nil && cfg.Auth.BlobPrefix == "" {
		cfg.Auth.BlobPrefix = DefaultAuthPrefix
	}
}

// Validate enforces required invariants beyond JSON typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core == nil {
		return fmt.Errorf("core config is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}
	if cfg.Core.DashboardDir == "" {
		return fmt.Errorf("core.dashboard_dir is required")
	}

	if cfg.Auth != nil {
		if cfg.Auth.BlobEndpoint == "" {
			return fmt.Errorf("auth.blob_endpoint is required")
		}
		if cfg.Auth.BlobBucket == "" {
			return fmt.Errorf("auth.blob_bucket is required")
		}
		if cfg.Auth.BlobAccessKeyFile == "" {
			return fmt.Errorf("auth.blob_access_key_file is required")
		}
		if cfg.Auth.BlobSecretKeyFile == "" {
			return fmt.Errorf("auth.blob_secret_key_file is required")
		}
	}

	if cfg.Deebot != nil {
		if cfg.Deebot.DeviceID == "" {
			return fmt.Errorf("deebot.device_id is required")
		}
		if cfg.Deebot.DeviceClass == "" {
			return fmt.Errorf("deebot.device_class is required")
		}
		if cfg.Deebot.MQTTHost == "" {
			return fmt.Errorf("deebot.mqtt_host is required")
		}
	}

	return nil
}

// EnabledPlugins maps enabled plugin IDs based on config presence.
func EnabledPlugins(cfg *Config) map[string]bool {
	enabled := make(map[string]bool)
	if cfg == nil {
		return enabled
	}
	if cfg.Deebot != nil {
		enabled["deebot"] = true
	}
	return enabled
}
