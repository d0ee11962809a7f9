package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HostConfig is the versioned host.yaml document.
type HostConfig struct {
	Version int `yaml:"version"`
	App     struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Root string `yaml:"root"`
	} `yaml:"app"`
	Network struct {
		HTTPPort int `yaml:"http_port"`
	} `yaml:"network"`
	TLS struct {
		Cert string `yaml:"cert"`
		Key  string `yaml:"key"`
	} `yaml:"tls"`
	Protocol struct {
		Accept string `yaml:"accept"`
	} `yaml:"protocol"`
	API struct {
		BaseURL      string   `yaml:"base_url"`
		TimeoutMS    int      `yaml:"timeout_ms"`
		AllowedHosts []string `yaml:"allowed_hosts"`
	} `yaml:"api"`
	MQTT struct {
		Enabled        bool   `yaml:"enabled"`
		ScreensTopic   string `yaml:"screens_topic"`
		AnalyticsTopic string `yaml:"analytics_topic"`
	} `yaml:"mqtt"`
	Postgres struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"postgres"`
	RateLimit struct {
		RPS   int `yaml:"rps"`
		Burst int `yaml:"burst"`
	} `yaml:"rate_limit"`
	Sessions struct {
		IdleTTLMS int `yaml:"idle_ttl_ms"`
	} `yaml:"sessions"`
	Screens []string `yaml:"screens"`
}

// HTTPPort returns the configured HTTP port, defaulting to 8080 if not set.
func (c *HostConfig) HTTPPort() int {
	if c.Network.HTTPPort == 0 {
		return 8080
	}
	return c.Network.HTTPPort
}

// ProtocolConstraint returns the accepted protocol range, defaulting to ">= 1.0.0".
func (c *HostConfig) ProtocolConstraint() string {
	if c.Protocol.Accept == "" {
		return ">= 1.0.0"
	}
	return c.Protocol.Accept
}

// APITimeout returns the API_CALL timeout, defaulting to 5s.
func (c *HostConfig) APITimeout() time.Duration {
	if c.API.TimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.API.TimeoutMS) * time.Millisecond
}

// SessionTTL returns how long an unused session survives, defaulting to 30m.
// A negative idle_ttl_ms keeps sessions forever.
func (c *HostConfig) SessionTTL() time.Duration {
	switch {
	case c.Sessions.IdleTTLMS < 0:
		return 0
	case c.Sessions.IdleTTLMS == 0:
		return 30 * time.Minute
	}
	return time.Duration(c.Sessions.IdleTTLMS) * time.Millisecond
}

// Limits returns requests per second and burst, defaulting to 20/40.
func (c *HostConfig) Limits() (rps int, burst int) {
	rps, burst = c.RateLimit.RPS, c.RateLimit.Burst
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 2 * rps
	}
	return rps, burst
}

// ScreensTopic returns the MQTT topic filter for screen payloads.
func (c *HostConfig) ScreensTopic() string {
	if c.MQTT.ScreensTopic != "" {
		return c.MQTT.ScreensTopic
	}
	return fmt.Sprintf("sdui/%s/screens/+", c.AppID())
}

// AnalyticsTopic returns the MQTT topic prefix for tracked events.
func (c *HostConfig) AnalyticsTopic() string {
	if c.MQTT.AnalyticsTopic != "" {
		return c.MQTT.AnalyticsTopic
	}
	return fmt.Sprintf("sdui/%s/analytics", c.AppID())
}

// AppID returns the application ID, defaulting to "default".
func (c *HostConfig) AppID() string {
	if c.App.ID == "" {
		return "default"
	}
	return c.App.ID
}

// RootScreen returns the screen new sessions start on, defaulting to "home".
func (c *HostConfig) RootScreen() string {
	if c.App.Root == "" {
		return "home"
	}
	return c.App.Root
}

func LoadHostConfig(path string) (*HostConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHostConfig(b)
}

func ParseHostConfig(b []byte) (*HostConfig, error) {
	var cfg HostConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported host.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
