package types

import (
	"encoding/json"
	"slices"
	"time"
)

// SkillSet is an unordered set of skill names. Membership is case-sensitive.
type SkillSet map[string]struct{}

// NewSkillSet builds a set from the given names, ignoring empty strings.
func NewSkillSet(names ...string) SkillSet {
	s := make(SkillSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s SkillSet) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

func (s SkillSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s SkillSet) Len() int { return len(s) }

// Sorted returns the members in lexicographic order.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s SkillSet) Union(other SkillSet) SkillSet {
	out := make(SkillSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := make(SkillSet)
	for k := range s {
		if other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s SkillSet) Minus(other SkillSet) SkillSet {
	out := make(SkillSet)
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewSkillSet(names...)
	return nil
}

// RoleScope holds the declared skill universe for a role. An empty Source
// means no scope file was found for the role.
type RoleScope struct {
	Core     SkillSet `json:"core"`
	Optional SkillSet `json:"optional"`
	Exclude  SkillSet `json:"exclude"`
	Source   string   `json:"source,omitempty"`
}

// EmptyScope returns a scope with initialised, empty sets.
func EmptyScope() RoleScope {
	return RoleScope{
		Core:     SkillSet{},
		Optional: SkillSet{},
		Exclude:  SkillSet{},
	}
}

// HasDeclaredSkills reports whether core or optional is non-empty.
func (r RoleScope) HasDeclaredSkills() bool {
	return len(r.Core) > 0 || len(r.Optional) > 0
}

// Declared returns core ∪ optional.
func (r RoleScope) Declared() SkillSet {
	return r.Core.Union(r.Optional)
}

// SkillEvidence records how strongly a CV supports a skill
type SkillEvidence struct {
	Mentions int      `json:"mentions"`
	Score    int      `json:"score"`
	Evidence []string `json:"evidence"`
}

// SkillProfile maps canonical skill names to their evidence.
type SkillProfile map[string]SkillEvidence

// Names returns the profile's skills as a set.
func (p SkillProfile) Names() SkillSet {
	s := make(SkillSet, len(p))
	for k := range p {
		s[k] = struct{}{}
	}
	return s
}

// Week is a single roadmap entry
type Week struct {
	Week      int      `json:"week"`
	Title     string   `json:"title"`
	Focus     []string `json:"focus"`
	Tasks     []string `json:"tasks"`
	Resources []string `json:"resources"`
}

// Document is a retrieved knowledge-base chunk. Well-known metadata keys
// are "type", "source" and "skills" (pipe-delimited).
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Metadata keys and document types used by the knowledge base
const (
	MetaType   = "type"
	MetaSource = "source"
	MetaSkills = "skills"

	DocTypeRole     = "role"
	DocTypePlaybook = "playbook"
	DocTypeRoadmap  = "roadmap"
)

// NarrativeRequest is everything the narrative generator needs
type NarrativeRequest struct {
	TargetRole       string       `json:"targetRole"`
	Matched          []string     `json:"matched"`
	Missing          []string     `json:"missing"`
	Profile          SkillProfile `json:"profile"`
	Scope            RoleScope    `json:"scope"`
	PlaybookSnippets string       `json:"playbookSnippets"`
	RoadmapSnippets  string       `json:"roadmapSnippets"`
	JobDescription   string       `json:"jobDescription,omitempty"`
	Instructions     string       `json:"instructions"`
}

// Narrative status values
const (
	NarrativeGenerated   = "generated"
	NarrativeSkipped     = "skipped"
	NarrativeUnavailable = "unavailable"
)

// GapReport is the result of one analysis
type GapReport struct {
	ID              string       `json:"id"`
	TargetRole      string       `json:"targetRole"`
	CanonicalRole   string       `json:"canonicalRole"`
	Scope           RoleScope    `json:"scope"`
	Profile         SkillProfile `json:"profile"`
	Required        []string     `json:"required"`
	Matched         []string     `json:"matched"`
	Missing         []string     `json:"missing"`
	Roadmap         []Week       `json:"roadmap"`
	Narrative       string       `json:"narrative,omitempty"`
	NarrativeStatus string       `json:"narrativeStatus"`
	GeneratedAt     time.Time    `json:"generatedAt"`
}
