package deebot

import (
	"fmt"

	configv1 "github.com/hausware/deebot/internal/config"
)

// Config defines runtime configuration for a single device session.
type Config struct {
	Vacuum Vacuum
	MQTT   MQTTConfig
}

func ConfigFromFile(cfg *configv1.DeebotConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("deebot config is required")
	}
	if cfg.DeviceID == "" {
		return Config{}, fmt.Errorf("deebot device_id is required")
	}
	if cfg.DeviceClass == "" {
		return Config{}, fmt.Errorf("deebot device_class is required")
	}
	if cfg.MQTTHost == "" {
		return Config{}, fmt.Errorf("deebot mqtt_host is required")
	}

	resource := cfg.Resource
	if resource == "" {
		resource = "atom"
	}
	port := cfg.MQTTPort
	if port == 0 {
		port = 8883
	}

	return Config{
		Vacuum: Vacuum{
			DID:      cfg.DeviceID,
			Class:    cfg.DeviceClass,
			Resource: resource,
			Company:  cfg.Company,
			Nickname: cfg.Nickname,
		},
		MQTT: MQTTConfig{
			Host:     cfg.MQTTHost,
			Port:     port,
			TLS:      !cfg.MQTTDisableTLS,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		},
	}, nil
}
