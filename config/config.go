// Package config loads the simulation configuration from a YAML or JSON
// file, with environment variable overrides (BSIM_SECTION__KEY).
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/batterysim/core/behavior"
	"github.com/kilianp07/batterysim/core/model"
	infrasink "github.com/kilianp07/batterysim/infra/sink"
)

const envPrefix = "BSIM_"

// Config is the root configuration.
type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Sinks      SinksConfig      `json:"sinks"`
	Metrics    MetricsConfig    `json:"metrics"`
}

// SimulationConfig selects what to simulate.
type SimulationConfig struct {
	Vehicles  []string `json:"vehicles"`
	Profile   string   `json:"profile"`
	Archetype string   `json:"archetype"`
	Days      int      `json:"days"`
	Seed      int64    `json:"seed"`
	Start     string   `json:"start"` // YYYY-MM-DD, empty for the default epoch
	Anomalies bool     `json:"anomalies"`

	AnnualFadePercent float64 `json:"annual_fade_percent"`
}

// SinksConfig selects where telemetry lands. Disabled sinks are not built.
type SinksConfig struct {
	SQLite SQLiteSinkConfig `json:"sqlite"`
	Influx InfluxSinkConfig `json:"influx"`
	MQTT   MQTTSinkConfig   `json:"mqtt"`
}

type SQLiteSinkConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type InfluxSinkConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// InfluxConfig converts to the sink's connection settings.
func (c InfluxSinkConfig) InfluxConfig() infrasink.InfluxConfig {
	return infrasink.InfluxConfig{URL: c.URL, Token: c.Token, Org: c.Org, Bucket: c.Bucket}
}

type MQTTSinkConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// MQTTConfig converts to the sink's connection settings.
func (c MQTTSinkConfig) MQTTConfig() infrasink.MQTTConfig {
	return infrasink.MQTTConfig{
		Broker:      c.Broker,
		ClientID:    c.ClientID,
		Username:    c.Username,
		Password:    c.Password,
		TopicPrefix: c.TopicPrefix,
		QoS:         c.QoS,
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults fills missing values with sane ones.
func (c *Config) SetDefaults() {
	if len(c.Simulation.Vehicles) == 0 {
		c.Simulation.Vehicles = []string{"VEH001"}
	}
	if c.Simulation.Profile == "" {
		c.Simulation.Profile = "common_driver"
	}
	if c.Simulation.Days <= 0 {
		c.Simulation.Days = 1
	}
	if c.Simulation.AnnualFadePercent == 0 {
		c.Simulation.AnnualFadePercent = 2.0
	}
	if c.Sinks.SQLite.Path == "" {
		c.Sinks.SQLite.Path = "telemetry.db"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Validate checks the configuration against the vehicle and profile
// catalogs.
func (c *Config) Validate() error {
	for _, id := range c.Simulation.Vehicles {
		if _, err := model.SpecFor(id); err != nil {
			return fmt.Errorf("simulation.vehicles: %q: %w", id, err)
		}
	}
	if _, err := behavior.ProfileFor(c.Simulation.Profile); err != nil {
		return fmt.Errorf("simulation.profile: %q: %w", c.Simulation.Profile, err)
	}
	if c.Simulation.Start != "" {
		if _, err := time.Parse("2006-01-02", c.Simulation.Start); err != nil {
			return fmt.Errorf("simulation.start: %w", err)
		}
	}
	if c.Sinks.Influx.Enabled && c.Sinks.Influx.URL == "" {
		return fmt.Errorf("sinks.influx: url required when enabled")
	}
	if c.Sinks.MQTT.Enabled && c.Sinks.MQTT.Broker == "" {
		return fmt.Errorf("sinks.mqtt: broker required when enabled")
	}
	return nil
}

// StartTime parses the configured start date. The zero time means "use the
// engine default".
func (c *Config) StartTime() time.Time {
	if c.Simulation.Start == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.Simulation.Start)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Load reads the file at path, applies environment overrides, then defaults
// and validation. An empty path skips the file and loads environment plus
// defaults only.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
}
