package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/meditrack/lifeline/core/dispatch"
	"github.com/meditrack/lifeline/core/metrics"
	"github.com/meditrack/lifeline/infra/mqtt"
	"github.com/meditrack/lifeline/infra/snapshot"
)

// Config aggregates every section of the service configuration.
type Config struct {
	MQTT     mqtt.Config     `json:"mqtt"`
	Identity IdentityConfig  `json:"identity"`
	Rooms    RoomsConfig     `json:"rooms"`
	Alerts   AlertsConfig    `json:"alerts"`
	Dispatch dispatch.Config `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
	Snapshot snapshot.Config `json:"snapshot"`
	API      APIConfig       `json:"api"`
}

// IdentityConfig is the subject the session is opened for.
type IdentityConfig struct {
	UserID   string `json:"user_id"`
	UserRole string `json:"user_role"`
}

// Validate checks mandatory fields.
func (c IdentityConfig) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("identity.user_id is required")
	}
	return nil
}

// RoomsConfig lists the rooms joined at startup.
type RoomsConfig struct {
	Patients    []string `json:"patients"`
	Hospitals   []string `json:"hospitals"`
	TriageQueue bool     `json:"triage_queue"`
}

// AlertsConfig parameterizes the alert store.
type AlertsConfig struct {
	// DwellSeconds is how long info and success alerts stay before automatic
	// removal.
	DwellSeconds int `json:"dwell_seconds"`
}

// SetDefaults applies sane defaults.
func (c *AlertsConfig) SetDefaults() {
	if c.DwellSeconds == 0 {
		c.DwellSeconds = 10
	}
}

// APIConfig parameterizes the status HTTP API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Load reads the configuration from a JSON or YAML file, with optional
// LL_-prefixed environment overrides (LL_MQTT__BROKER maps to mqtt.broker).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ll_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Alerts.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Snapshot.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Identity.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
