package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rdelgado/meraki-snipeit-sync/internal/logging"
)

// Duration unmarshals from YAML strings like "500ms" or "1h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MerakiConfig points at the source Meraki Dashboard API.
type MerakiConfig struct {
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	OrganizationID string   `yaml:"organization_id"`
	Timeout        Duration `yaml:"timeout"`
	PerPage        int      `yaml:"per_page"`
}

// SnipeITConfig points at the destination Snipe-IT instance. BaseURL is the
// instance root; the client appends /api/v1 itself.
type SnipeITConfig struct {
	BaseURL    string   `yaml:"base_url"`
	APIKey     string   `yaml:"api_key"`
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"max_retries"`
	RetryWait  Duration `yaml:"retry_wait"`
}

// SyncConfig tunes the per-run behavior.
type SyncConfig struct {
	DeviceDelay Duration `yaml:"device_delay"` // pacing pause between devices
	PageLimit   int      `yaml:"page_limit"`   // prewarm bulk-list limit
}

// SchedulerConfig controls the periodic trigger. Cron takes precedence over
// Interval when both are set.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
	Cron     string   `yaml:"cron"`
}

// Config holds all configuration (config file + environment).
type Config struct {
	Listen    string          `yaml:"listen"`
	Meraki    MerakiConfig    `yaml:"meraki"`
	SnipeIT   SnipeITConfig   `yaml:"snipeit"`
	Sync      SyncConfig      `yaml:"sync"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   logging.Config  `yaml:"logging"`
}

// Load reads the optional YAML config file, then overlays environment
// variables and fills defaults. A .env file in the working directory is
// honored the same way the upstream deployment did.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort, absence is not an error

	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	c.applyEnv()
	c.applyDefaults()
	return c, nil
}

// applyEnv overlays environment variables. Environment wins over the file so
// secrets can stay out of the config on disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("MERAKI_API_KEY"); v != "" {
		c.Meraki.APIKey = v
	}
	if v := os.Getenv("ORGANIZATION_ID"); v != "" {
		c.Meraki.OrganizationID = v
	}
	if v := os.Getenv("MERAKI_BASE_URL"); v != "" {
		c.Meraki.BaseURL = v
	}
	if v := os.Getenv("SNIPE_IT_URL"); v != "" {
		c.SnipeIT.BaseURL = v
	}
	if v := os.Getenv("SNIPE_IT_API_KEY"); v != "" {
		c.SnipeIT.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Meraki.BaseURL == "" {
		c.Meraki.BaseURL = "https://api.meraki.com/api/v1"
	}
	if c.Meraki.Timeout == 0 {
		c.Meraki.Timeout = Duration(30 * time.Second)
	}
	if c.Meraki.PerPage == 0 {
		c.Meraki.PerPage = 1000
	}
	if c.SnipeIT.Timeout == 0 {
		c.SnipeIT.Timeout = Duration(30 * time.Second)
	}
	if c.SnipeIT.MaxRetries == 0 {
		c.SnipeIT.MaxRetries = 3
	}
	if c.SnipeIT.RetryWait == 0 {
		c.SnipeIT.RetryWait = Duration(10 * time.Second)
	}
	if c.Sync.DeviceDelay == 0 {
		c.Sync.DeviceDelay = Duration(500 * time.Millisecond)
	}
	if c.Sync.PageLimit == 0 {
		c.Sync.PageLimit = 500
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = Duration(time.Hour)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks that the credentials and endpoints required before any
// work can start are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Meraki.APIKey == "" {
		missing = append(missing, "meraki.api_key (MERAKI_API_KEY)")
	}
	if c.Meraki.OrganizationID == "" {
		missing = append(missing, "meraki.organization_id (ORGANIZATION_ID)")
	}
	if c.SnipeIT.BaseURL == "" {
		missing = append(missing, "snipeit.base_url (SNIPE_IT_URL)")
	}
	if c.SnipeIT.APIKey == "" {
		missing = append(missing, "snipeit.api_key (SNIPE_IT_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
