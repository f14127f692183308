package ai

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"skillgap/internal/types"
)

const (
	// DefaultPreamble opens the narrative prompt unless a custom user prompt replaces it.
	DefaultPreamble = "You are a career coach and hiring-aligned advisor."

	topSkillsLimit = 10
	scopeListLimit = 40
)

const closingInstructions = `Write:
1) Gap explanation (6-10 lines, role-specific)
2) Prioritized learning plan (4 weeks, week-wise)
3) 2 portfolio projects aligned with missing skills
Keep it practical and concise.`

// TopSkills returns up to limit CV skills ordered by score descending,
// then case-insensitive name.
func TopSkills(profile types.SkillProfile, limit int) []string {
	names := profile.Names().Sorted()
	slices.SortStableFunc(names, func(a, b string) int {
		if c := cmp.Compare(profile[b].Score, profile[a].Score); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

// BuildPrompt renders the narrative request as the user prompt.
func BuildPrompt(req types.NarrativeRequest, preamble string) string {
	if preamble == "" {
		preamble = DefaultPreamble
	}

	var top strings.Builder
	for i, name := range TopSkills(req.Profile, topSkillsLimit) {
		if i > 0 {
			top.WriteByte('\n')
		}
		ev := req.Profile[name]
		fmt.Fprintf(&top, "- %s (score=%d, mentions=%d)", name, ev.Score, ev.Mentions)
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nTarget role: ")
	b.WriteString(req.TargetRole)
	b.WriteString("\n\nCandidate CV (extracted skills summary):\nTop skills:\n")
	b.WriteString(top.String())
	b.WriteString("\n\nMatched target skills:\n")
	b.WriteString(joinOr(req.Matched, "None"))
	b.WriteString("\n\nMissing target skills:\n")
	b.WriteString(joinOr(req.Missing, "None"))
	b.WriteString("\n\nRole scope:\nCore skills: ")
	b.WriteString(joinOr(capped(req.Scope.Core), "Not provided"))
	b.WriteString("\nOptional skills: ")
	b.WriteString(joinOr(capped(req.Scope.Optional), "Not provided"))
	b.WriteString("\n\nReference playbooks (grounding, do not invent resources):\n")
	b.WriteString(orDefault(req.PlaybookSnippets, "No playbooks provided"))
	b.WriteString("\n\nReference roadmaps (grounding, do not invent resources):\n")
	b.WriteString(orDefault(req.RoadmapSnippets, "No roadmaps provided"))
	if jd := strings.TrimSpace(req.JobDescription); jd != "" {
		b.WriteString("\n\nTarget job description:\n")
		b.WriteString(jd)
	}
	b.WriteString("\n\n")
	b.WriteString(closingInstructions)
	return b.String()
}

func capped(s types.SkillSet) []string {
	names := s.Sorted()
	if len(names) > scopeListLimit {
		names = names[:scopeListLimit]
	}
	return names
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// resolvePrompt picks a file-loaded prompt over an inline config prompt over the default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// systemInstruction combines an operator system prompt with the per-request instructions.
func systemInstruction(configured, instructions string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{configured, instructions} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
