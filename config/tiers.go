package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TierRole pairs an Open Collective tier with the Discord role it grants
type TierRole struct {
	Tier string `yaml:"tier"`
	Role string `yaml:"role"`
}

// TierRoles is an ordered mapping from Open Collective tier name to Discord role name.
// Entries keep the order they were declared in.
type TierRoles struct {
	entries []TierRole
	index   map[string]int
}

// DefaultTierRoles returns the built-in tier map
func DefaultTierRoles() *TierRoles {
	roles, err := NewTierRoles([]TierRole{
		{Tier: "Root-Access Legend", Role: "root-access-legend"},
		{Tier: "Low-Spec Casual", Role: "low-spec-casual"},
	})
	if err != nil {
		panic(fmt.Sprintf("invalid built-in tier map: %v", err))
	}
	return roles
}

// NewTierRoles builds a tier map, rejecting empty names and duplicate tiers
func NewTierRoles(entries []TierRole) (*TierRoles, error) {
	t := &TierRoles{
		entries: make([]TierRole, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, entry := range entries {
		tier := strings.TrimSpace(entry.Tier)
		role := strings.TrimSpace(entry.Role)
		if tier == "" || role == "" {
			return nil, fmt.Errorf("tier map entry %d: tier and role must both be set", i)
		}
		if _, exists := t.index[tier]; exists {
			return nil, fmt.Errorf("tier map entry %d: duplicate tier %q", i, tier)
		}
		t.index[tier] = len(t.entries)
		t.entries = append(t.entries, TierRole{Tier: tier, Role: role})
	}

	return t, nil
}

// LoadTierRoles reads a tier map from a YAML file holding a list of {tier, role} pairs
func LoadTierRoles(path string) (*TierRoles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier map %s: %w", path, err)
	}
	return ParseTierRoles(data)
}

// ParseTierRoles decodes a YAML tier map
func ParseTierRoles(data []byte) (*TierRoles, error) {
	var entries []TierRole
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse tier map: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("tier map is empty")
	}
	return NewTierRoles(entries)
}

// TierRolesFor returns the tier map from TierRolesFile, or the built-in map when unset
func (c *Config) TierRolesFor() (*TierRoles, error) {
	if c.TierRolesFile == "" {
		return DefaultTierRoles(), nil
	}
	return LoadTierRoles(c.TierRolesFile)
}

// Role returns the Discord role name mapped to a tier
func (t *TierRoles) Role(tier string) (string, bool) {
	i, ok := t.index[tier]
	if !ok {
		return "", false
	}
	return t.entries[i].Role, true
}

// Contains reports whether the tier is recognized
func (t *TierRoles) Contains(tier string) bool {
	_, ok := t.index[tier]
	return ok
}

// Tiers returns the recognized tier names in declaration order
func (t *TierRoles) Tiers() []string {
	tiers := make([]string, len(t.entries))
	for i, entry := range t.entries {
		tiers[i] = entry.Tier
	}
	return tiers
}

// Entries returns a copy of the mapping in declaration order
func (t *TierRoles) Entries() []TierRole {
	out := make([]TierRole, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of mapped tiers
func (t *TierRoles) Len() int {
	return len(t.entries)
}
