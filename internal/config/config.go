// Package config loads and validates the decision-layer configuration.
// The tick rate lives here so monitor trigger thresholds can be derived
// as seconds times rate at construction instead of being baked in.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// TickRateHz is the fixed control-loop rate the whole decision layer
	// runs at. Every seconds-valued trigger below is multiplied by it.
	TickRateHz int `yaml:"tick_rate_hz"`

	Crash struct {
		TriggerSec      float32 `yaml:"trigger_sec"`
		AccelMaxMSS     float32 `yaml:"accel_max_mss"`
		AngleErrorMaxCd int32   `yaml:"angle_error_max_cd"`
	} `yaml:"crash"`

	Parachute struct {
		TriggerSec      float32 `yaml:"trigger_sec"`
		AngleErrorMaxCd int32   `yaml:"angle_error_max_cd"`
	} `yaml:"parachute"`

	Waypoint struct {
		RadiusM       float32 `yaml:"radius_m"`
		MaxRadiusM    float32 `yaml:"max_radius_m"`
		LoiterRadiusM float32 `yaml:"loiter_radius_m"`
	} `yaml:"waypoint"`

	Landing struct {
		FlareSec   float32 `yaml:"flare_sec"`
		FlareAltCm int32   `yaml:"flare_alt_cm"`
	} `yaml:"landing"`

	Cruise struct {
		AirspeedMS    float32 `yaml:"airspeed_ms"`
		GroundspeedMS float32 `yaml:"groundspeed_ms"`
		ThrottlePct   float32 `yaml:"throttle_pct"`
	} `yaml:"cruise"`

	GroundLink struct {
		Broker         string `yaml:"broker"`
		DeviceID       string `yaml:"device_id"`
		PrivateKeyPath string `yaml:"private_key"`
		ProjectID      string `yaml:"project_id"`
		Region         string `yaml:"region"`
		RegistryID     string `yaml:"registry_id"`
	} `yaml:"ground_link"`

	Log struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	EventLog struct {
		Path string `yaml:"path"`
	} `yaml:"event_log"`
}

// Default returns the nominal tuning for a stock vehicle.
func Default() *Config {
	cfg := &Config{TickRateHz: 50}
	cfg.Crash.TriggerSec = 2
	cfg.Crash.AccelMaxMSS = 3.0
	cfg.Crash.AngleErrorMaxCd = 3000
	cfg.Parachute.TriggerSec = 1
	cfg.Parachute.AngleErrorMaxCd = 3000
	cfg.Waypoint.RadiusM = 30
	cfg.Waypoint.LoiterRadiusM = 60
	cfg.Landing.FlareSec = 2
	cfg.Landing.FlareAltCm = 300
	cfg.Cruise.AirspeedMS = 12
	cfg.Cruise.GroundspeedMS = 0
	cfg.Cruise.ThrottlePct = 45
	cfg.EventLog.Path = "events.bin"
	return cfg
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate rejects configurations the monitors cannot run on.
func (c *Config) Validate() error {
	if c.TickRateHz <= 0 {
		return errors.New("tick_rate_hz must be positive")
	}
	if c.Crash.TriggerSec <= 0 {
		return errors.New("crash.trigger_sec must be positive")
	}
	if c.Parachute.TriggerSec <= 0 {
		return errors.New("parachute.trigger_sec must be positive")
	}
	if c.Waypoint.RadiusM <= 0 {
		return errors.New("waypoint.radius_m must be positive")
	}
	if c.Landing.FlareSec < 0 {
		return errors.New("landing.flare_sec must not be negative")
	}
	return nil
}
