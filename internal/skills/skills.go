// Package skills detects known skills in free text and scores the evidence.
package skills

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"skillgap/internal/types"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// MaxEvidenceLines caps the evidence kept per skill.
const MaxEvidenceLines = 5

// Skill is one entry of the pattern table.
type Skill struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Table is an ordered, read-only skill pattern table.
type Table struct {
	skills []Skill
}

type tableEntry struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// ParseTable parses a YAML pattern table. Patterns are compiled case-insensitive.
func ParseTable(data []byte) (*Table, error) {
	var entries []tableEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse skill table: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	table := &Table{skills: make([]Skill, 0, len(entries))}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("skill table entry without a name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate skill %q in table", name)
		}
		if len(e.Patterns) == 0 {
			return nil, fmt.Errorf("skill %q has no patterns", name)
		}
		seen[name] = true

		skill := Skill{Name: name, Patterns: make([]*regexp.Regexp, 0, len(e.Patterns))}
		for _, p := range e.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("skill %q: invalid pattern %q: %w", name, p, err)
			}
			skill.Patterns = append(skill.Patterns, re)
		}
		table.skills = append(table.skills, skill)
	}
	return table, nil
}

// Skills returns the table entries in declaration order.
func (t *Table) Skills() []Skill {
	return t.skills
}

// Names returns the canonical skill names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.skills))
	for i, s := range t.skills {
		names[i] = s.Name
	}
	return names
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in pattern table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(defaultPatterns)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Score maps a mention count to an evidence score: 0 for none,
// 1 for a single mention, 2 for two or three, 3 for four or more.
func Score(mentions int) int {
	switch {
	case mentions >= 4:
		return 3
	case mentions >= 2:
		return 2
	case mentions >= 1:
		return 1
	default:
		return 0
	}
}

// Extract builds a skill profile from raw CV text using the default table.
func Extract(text string) types.SkillProfile {
	return Default().Extract(text)
}

// Extract builds a skill profile from raw CV text. Skills with no matches
// are absent from the result.
func (t *Table) Extract(text string) types.SkillProfile {
	profile := make(types.SkillProfile)
	var lines []string

	for _, skill := range t.skills {
		mentions := 0
		for _, re := range skill.Patterns {
			mentions += len(re.FindAllStringIndex(text, -1))
		}
		if mentions == 0 {
			continue
		}

		if lines == nil {
			lines = nonBlankLines(text)
		}

		profile[skill.Name] = types.SkillEvidence{
			Mentions: mentions,
			Score:    Score(mentions),
			Evidence: evidenceFor(skill, lines),
		}
	}
	return profile
}

func evidenceFor(skill Skill, lines []string) []string {
	evidence := make([]string, 0, MaxEvidenceLines)
	seen := make(map[string]bool)
	for _, ln := range lines {
		if len(evidence) == MaxEvidenceLines {
			break
		}
		if seen[ln] {
			continue
		}
		for _, re := range skill.Patterns {
			if re.MatchString(ln) {
				evidence = append(evidence, ln)
				seen[ln] = true
				break
			}
		}
	}
	return evidence
}

func nonBlankLines(text string) []string {
	var out []string
	for ln := range strings.Lines(text) {
		if s := strings.TrimSpace(ln); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ApplyRoleExclusions returns a copy of profile without the skills in the
// scope's exclude set. Matching is case-insensitive.
func ApplyRoleExclusions(profile types.SkillProfile, scope types.RoleScope) types.SkillProfile {
	excluded := make(map[string]bool, len(scope.Exclude))
	for name := range scope.Exclude {
		excluded[strings.ToLower(name)] = true
	}

	out := make(types.SkillProfile, len(profile))
	for name, ev := range profile {
		if excluded[strings.ToLower(name)] {
			continue
		}
		ev.Evidence = append([]string(nil), ev.Evidence...)
		out[name] = ev
	}
	return out
}
