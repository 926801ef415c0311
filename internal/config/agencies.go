package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// AgencyMode decides where an agency's records live
type AgencyMode string

const (
	// ModeShared agencies use the remote store when a user is signed in
	ModeShared AgencyMode = "shared"
	// ModeIsolated agencies always keep records on this device
	ModeIsolated AgencyMode = "isolated"
)

// Agency is a tenant of the CRM with its own data partition
type Agency struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Mode        AgencyMode `yaml:"mode" json:"mode"`
	Color       string     `yaml:"color,omitempty" json:"color,omitempty"` // accent colour for terminal views
}

// IsIsolated reports whether the agency never touches the remote store
func (a Agency) IsIsolated() bool {
	return a.Mode == ModeIsolated
}

// DefaultAgencies returns the agencies every installation starts with
func DefaultAgencies() []Agency {
	return []Agency{
		{
			ID:          "clabs",
			Name:        "C.LABS",
			Description: "Acesso padrão do CRM C.LABS",
			Mode:        ModeShared,
			Color:       "#C6F432",
		},
		{
			ID:          "sky",
			Name:        "Agência Céu",
			Description: "Acesso isolado com paleta azul céu e dados zerados",
			Mode:        ModeIsolated,
			Color:       "#4CC3F7",
		},
	}
}

var agencyIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// GetAgency retrieves an agency by id
func (c *Config) GetAgency(id string) (Agency, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findAgency(id)
}

func (c *Config) findAgency(id string) (Agency, error) {
	for _, a := range c.Agencies {
		if a.ID == id {
			return a, nil
		}
	}
	return Agency{}, fmt.Errorf("agency '%s' not found", id)
}

// AgencyList returns a copy of the configured agencies
func (c *Config) AgencyList() []Agency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Agency(nil), c.Agencies...)
}

// CurrentAgencyID returns the id of the selected agency
func (c *Config) CurrentAgencyID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CurrentAgency
}

// Current returns the selected agency
func (c *Config) Current() Agency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, err := c.findAgency(c.CurrentAgency); err == nil {
		return a
	}
	if len(c.Agencies) > 0 {
		return c.Agencies[0]
	}
	return DefaultAgencies()[0]
}

// IsValidAgency checks if id names a configured agency
func (c *Config) IsValidAgency(id string) bool {
	_, err := c.GetAgency(id)
	return err == nil
}

// SwitchAgency selects and persists the current agency.
// Unknown ids are ignored and reported as false.
func (c *Config) SwitchAgency(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.findAgency(id); err != nil {
		return false, nil
	}
	if c.CurrentAgency == id {
		return true, nil
	}
	c.CurrentAgency = id
	return true, c.save()
}

// AddAgency registers a new agency
func (c *Config) AddAgency(a Agency) error {
	if !agencyIDPattern.MatchString(a.ID) {
		return fmt.Errorf("invalid agency id '%s'", a.ID)
	}
	if a.Mode == "" {
		a.Mode = ModeShared
	}
	if a.Mode != ModeShared && a.Mode != ModeIsolated {
		return fmt.Errorf("invalid agency mode '%s'", a.Mode)
	}
	if a.Name == "" {
		a.Name = a.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.findAgency(a.ID); err == nil {
		return fmt.Errorf("agency '%s' already exists", a.ID)
	}
	c.Agencies = append(c.Agencies, a)
	return c.save()
}

// RemoveAgency removes an agency from the configuration. The current agency
// cannot be removed. Local data on disk is left in place.
func (c *Config) RemoveAgency(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.CurrentAgency {
		return fmt.Errorf("cannot remove the current agency '%s'", id)
	}
	for i, a := range c.Agencies {
		if a.ID == id {
			c.Agencies = append(c.Agencies[:i:i], c.Agencies[i+1:]...)
			return c.save()
		}
	}
	return fmt.Errorf("agency '%s' not found", id)
}

// AgencyDir returns the local data directory of an agency
func (c *Config) AgencyDir(id string) string {
	return filepath.Join(c.DataDir, "agencies", id)
}

// EnsureAgencyDirs creates the local data directory of every agency
func (c *Config) EnsureAgencyDirs() error {
	for _, a := range c.AgencyList() {
		if err := os.MkdirAll(c.AgencyDir(a.ID), 0755); err != nil {
			return fmt.Errorf("failed to create directory for agency '%s': %w", a.ID, err)
		}
	}
	return nil
}
