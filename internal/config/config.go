package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-crm/internal/session"
)

const (
	configFileName = "config.yaml"

	DefaultRevenueGoal = 15000.0
	DefaultPort        = 8080
)

// DatabaseConfig points at the shared remote store
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	URL    string `yaml:"url"`
}

// Enabled reports whether a remote store is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != "" && d.URL != ""
}

// Config is the on-disk configuration at <dir>/config.yaml
type Config struct {
	DataDir       string         `yaml:"data_dir"`
	Database      DatabaseConfig `yaml:"database"`
	Port          int            `yaml:"port"`
	LogMode       string         `yaml:"log_mode"`
	RevenueGoal   float64        `yaml:"revenue_goal"`
	DefaultCity   string         `yaml:"default_city,omitempty"`
	User          string         `yaml:"user,omitempty"`
	CurrentAgency string         `yaml:"current_agency"`
	Agencies      []Agency       `yaml:"agencies"`

	path string
	// mu guards Agencies and CurrentAgency once the config is shared
	mu *sync.RWMutex
	// file is the configuration as read from disk, before env overrides
	file *Config
}

// DefaultDir returns $POCKET_CRM_DIR or ~/.pocket-crm
func DefaultDir() (string, error) {
	if dir := os.Getenv("POCKET_CRM_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pocket-crm"), nil
}

// Load reads config.yaml from baseDir (DefaultDir when empty), fills in
// defaults and applies POCKET_CRM_* environment overrides. A missing file
// yields the default configuration.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	c := &Config{path: filepath.Join(baseDir, configFileName), mu: &sync.RWMutex{}}
	data, err := os.ReadFile(c.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", c.path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}

	if c.DataDir == "" {
		c.DataDir = baseDir
	}
	c.applyDefaults()

	file := *c
	file.Agencies = append([]Agency(nil), c.Agencies...)
	c.file = &file

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogMode == "" {
		c.LogMode = "prod"
	}
	if c.RevenueGoal <= 0 {
		c.RevenueGoal = DefaultRevenueGoal
	}
	if len(c.Agencies) == 0 {
		c.Agencies = DefaultAgencies()
	}
	if _, err := c.GetAgency(c.CurrentAgency); err != nil {
		c.CurrentAgency = c.Agencies[0].ID
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("POCKET_CRM_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("POCKET_CRM_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("POCKET_CRM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid POCKET_CRM_PORT %q", v)
		}
		c.Port = port
	}
	if v := os.Getenv("POCKET_CRM_LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := os.Getenv("POCKET_CRM_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("POCKET_CRM_AGENCY"); v != "" && c.IsValidAgency(v) {
		c.CurrentAgency = v
	}

	switch c.Database.Driver {
	case "", "sqlite", "postgres":
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// Path returns the location of config.yaml
func (c *Config) Path() string {
	return c.path
}

// Save writes the file configuration with the current agency list and selection.
// Environment overrides other than those are not persisted.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

// save writes the file; callers hold mu
func (c *Config) save() error {
	out := c.file
	if out == nil {
		out = &Config{}
		*out = *c
	}
	out.Agencies = c.Agencies
	out.CurrentAgency = c.CurrentAgency

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(c.path, data, 0644)
}

// Session builds the caller session for the configured user and current agency
func (c *Config) Session() *session.Session {
	return c.SessionFor(c.User, c.CurrentAgencyID())
}

// SessionFor builds a session for an explicit user and agency.
// An unknown agency falls back to the current one.
func (c *Config) SessionFor(userID, agencyID string) *session.Session {
	agency, err := c.GetAgency(agencyID)
	if err != nil {
		agency = c.Current()
	}
	return &session.Session{
		UserID:   userID,
		AgencyID: agency.ID,
		Isolated: agency.IsIsolated(),
	}
}
