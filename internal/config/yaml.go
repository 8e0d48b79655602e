// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "melbar/internal/log"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it looks for melbar.yaml in the working directory and falls back to
// built-in defaults when there is none. Environment overrides are applied after
// the file. The result is not validated here because command line flags may
// still change it; callers run Validate once everything is merged.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range []string{DefaultConfigFile} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides reads MELBAR_* variables. Values that fail to parse are
// ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// MELBAR_LOG_LEVEL
	if val, ok := os.LookupEnv("MELBAR_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("Config: Overriding log_level from env: %s", val)
	}
	// MELBAR_LOG_FILE
	if val, ok := os.LookupEnv("MELBAR_LOG_FILE"); ok {
		cfg.LogFile = val
		applog.Infof("Config: Overriding log_file from env: %s", val)
	}

	// MELBAR_INPUT_{...}
	// These select the capture source.

	// MELBAR_INPUT_DEVICE
	if val, ok := os.LookupEnv("MELBAR_INPUT_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = n
			applog.Infof("Config: Overriding audio.input_device from env: %d", n)
		} else {
			applog.Warnf("Config: Ignoring MELBAR_INPUT_DEVICE=%q: %v", val, err)
		}
	}
	// MELBAR_INPUT_FILE
	if val, ok := os.LookupEnv("MELBAR_INPUT_FILE"); ok {
		cfg.Audio.InputFile = val
		applog.Infof("Config: Overriding audio.input_file from env: %s", val)
	}

	// MELBAR_PALETTE
	if val, ok := os.LookupEnv("MELBAR_PALETTE"); ok {
		cfg.Display.Palette = val
		applog.Infof("Config: Overriding display.palette from env: %s", val)
	}

	// MELBAR_WS_{...} and MELBAR_UDP_{...}
	// These are specific to the transport layer.

	// MELBAR_WS_ENABLED
	if val, ok := os.LookupEnv("MELBAR_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = b
			applog.Infof("Config: Overriding transport.websocket_enabled from env: %v", b)
		} else {
			applog.Warnf("Config: Ignoring MELBAR_WS_ENABLED=%q: %v", val, err)
		}
	}
	// MELBAR_WS_ADDRESS
	if val, ok := os.LookupEnv("MELBAR_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		applog.Infof("Config: Overriding transport.websocket_address from env: %s", val)
	}
	// MELBAR_UDP_ENABLED
	if val, ok := os.LookupEnv("MELBAR_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = b
			applog.Infof("Config: Overriding transport.udp_enabled from env: %v", b)
		} else {
			applog.Warnf("Config: Ignoring MELBAR_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// MELBAR_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("MELBAR_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("Config: Overriding transport.udp_target_address from env: %s", val)
	}
	// MELBAR_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("MELBAR_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Infof("Config: Overriding transport.udp_send_interval from env: %s", dur)
		} else {
			applog.Warnf("Config: Ignoring MELBAR_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}
