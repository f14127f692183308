// Package roles normalizes free-form role names and resolves the declared
// skill scope of each canonical role.
package roles

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultRoles []byte

// Placeholder is the "nothing selected" value offered by role pickers.
const Placeholder = "Select a role"

// Role is a canonical role with its aliases and scope file.
type Role struct {
	Name    string   `yaml:"name" json:"name"`
	File    string   `yaml:"file" json:"file"`
	Aliases []string `yaml:"aliases" json:"aliases"`
}

// Catalog is an ordered, read-only list of canonical roles.
type Catalog struct {
	roles []Role
}

// ParseCatalog parses a YAML role catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var list []Role
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse role catalog: %w", err)
	}
	seen := make(map[string]bool, len(list))
	for i, r := range list {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("role catalog entry %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate role %q", r.Name)
		}
		seen[r.Name] = true
		for j, a := range r.Aliases {
			list[i].Aliases[j] = strings.ToLower(strings.TrimSpace(a))
		}
	}
	return &Catalog{roles: list}, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in role catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(defaultRoles)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Roles returns the catalog entries in match order.
func (c *Catalog) Roles() []Role {
	return c.roles
}

// Known returns the canonical role names.
func (c *Catalog) Known() []string {
	names := make([]string, len(c.roles))
	for i, r := range c.roles {
		names[i] = r.Name
	}
	return names
}

// Normalize maps free-form role text to a canonical role name. The first
// role whose name equals the input or whose alias is contained in it wins;
// unmatched input is returned trimmed.
func (c *Catalog) Normalize(role string) string {
	trimmed := strings.TrimSpace(role)
	r := strings.ToLower(trimmed)
	if r == "" {
		return ""
	}
	for _, canon := range c.roles {
		if r == strings.ToLower(canon.Name) {
			return canon.Name
		}
		for _, alias := range canon.Aliases {
			if alias != "" && strings.Contains(r, alias) {
				return canon.Name
			}
		}
	}
	return trimmed
}

// FileFor returns the scope file name for a canonical role.
func (c *Catalog) FileFor(canonical string) (string, bool) {
	for _, r := range c.roles {
		if r.Name == canonical {
			return r.File, r.File != ""
		}
	}
	return "", false
}

// Normalize uses the default catalog.
func Normalize(role string) string {
	return Default().Normalize(role)
}

// Known uses the default catalog.
func Known() []string {
	return Default().Known()
}

// ResolveTargetRole picks the role to analyze: a custom role wins, then the
// selected role unless it is the placeholder. Empty means no role was given.
func ResolveTargetRole(selected, custom string) string {
	if c := strings.TrimSpace(custom); c != "" {
		return c
	}
	s := strings.TrimSpace(selected)
	if s == Placeholder {
		return ""
	}
	return s
}
