// Package roadmap turns missing skills into a short week-by-week study plan.
package roadmap

import (
	"fmt"
	"strings"

	"skillgap/internal/types"
)

const (
	// MaxSkills is how many missing skills the plan covers.
	MaxSkills = 12
	// BucketSize is the number of skills focused on per week.
	BucketSize = 3

	snippetLines = 3
	defaultLabel = "playbook"
)

// Titles holds the fixed week titles, indexed by week-1.
var Titles = [...]string{
	"Foundation & Target Gaps",
	"Build Proof via Mini-Projects",
	"End-to-End Project & Deployment",
	"Polish, Interview Prep, Portfolio",
}

// Snippet condenses a playbook document to its source label and first lines.
func Snippet(doc types.Document) string {
	label := doc.Metadata[types.MetaSource]
	if label == "" {
		label = defaultLabel
	}
	var lines []string
	for ln := range strings.Lines(doc.Content) {
		if len(lines) == snippetLines {
			break
		}
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}
	return label + ": " + strings.Join(lines, " | ")
}

// Snippets condenses every document.
func Snippets(docs []types.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, Snippet(d))
	}
	return out
}

// Build produces at most four weeks covering the first twelve missing
// skills in the order given. Empty buckets produce no week.
func Build(missing []string, playbooks []types.Document) []types.Week {
	snippets := Snippets(playbooks)
	if len(missing) > MaxSkills {
		missing = missing[:MaxSkills]
	}

	weeks := make([]types.Week, 0, len(Titles))
	for i := range Titles {
		lo := i * BucketSize
		if lo >= len(missing) {
			break
		}
		hi := min(lo+BucketSize, len(missing))
		focus := append([]string(nil), missing[lo:hi]...)

		n := 2
		if i < 2 {
			n = 3
		}

		weeks = append(weeks, types.Week{
			Week:  i + 1,
			Title: Titles[i],
			Focus: focus,
			Tasks: []string{
				fmt.Sprintf("Learn core concepts for: %s", strings.Join(focus, ", ")),
				"Create 1 small demo (notebook or mini app) showing these skills",
				"Add 2 strong CV bullets with measurable outcomes",
			},
			Resources: append([]string{}, snippets[:min(n, len(snippets))]...),
		})
	}
	return weeks
}

// NarrativeContext joins the leading part of the first few documents for
// use as prompt grounding. Empty when there are no documents.
func NarrativeContext(docs []types.Document, maxDocs, maxChars int) string {
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		content := d.Content
		if r := []rune(content); len(r) > maxChars {
			content = string(r[:maxChars])
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n")
}
