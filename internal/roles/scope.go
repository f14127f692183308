package roles

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"skillgap/internal/types"
)

// Scope block labels
const (
	LabelCore     = "CORE_SKILLS"
	LabelOptional = "OPTIONAL_SKILLS"
	LabelExclude  = "EXCLUDE_SKILLS"
)

var labelLine = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9_]*\s*:`)

// ParseScope reads the CORE_SKILLS, OPTIONAL_SKILLS and EXCLUDE_SKILLS
// blocks from a role file. Missing or malformed blocks yield empty sets.
func ParseScope(text string) types.RoleScope {
	return types.RoleScope{
		Core:     parseList(text, LabelCore),
		Optional: parseList(text, LabelOptional),
		Exclude:  parseList(text, LabelExclude),
	}
}

// parseList captures the inline remainder of the label line and the lines
// that follow, up to a blank line, a header ending in ':' or another label.
func parseList(text, label string) types.SkillSet {
	keyRe := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(label) + `\s*:\s*(.*)$`)

	var items []string
	capturing := false
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if m := keyRe.FindStringSubmatch(line); m != nil {
			capturing = true
			if inline := strings.TrimSpace(m[1]); inline != "" {
				items = append(items, inline)
			}
			continue
		}
		if !capturing {
			continue
		}
		s := strings.TrimSpace(line)
		if s == "" || strings.HasSuffix(s, ":") || labelLine.MatchString(s) {
			break
		}
		items = append(items, s)
	}

	set := types.SkillSet{}
	for _, part := range strings.Split(strings.Join(items, ", "), ",") {
		set.Add(strings.TrimSpace(part))
	}
	return set
}

// LoadScope resolves the scope file for a canonical role under dir. An
// unmapped role or unreadable file gives an empty scope with no source.
func (c *Catalog) LoadScope(dir, canonical string) types.RoleScope {
	file, ok := c.FileFor(canonical)
	if !ok {
		return types.EmptyScope()
	}
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return types.EmptyScope()
	}
	scope := ParseScope(string(data))
	scope.Source = file
	return scope
}

// LoadScope uses the default catalog.
func LoadScope(dir, canonical string) types.RoleScope {
	return Default().LoadScope(dir, canonical)
}
