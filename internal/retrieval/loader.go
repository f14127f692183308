package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"skillgap/internal/types"
)

// Source is a knowledge-base folder and the document type it holds.
type Source struct {
	Dir  string
	Type string
}

// DefaultSources returns the role, playbook and roadmap folders under dataDir.
func DefaultSources(dataDir string) []Source {
	return []Source{
		{Dir: filepath.Join(dataDir, "roles"), Type: types.DocTypeRole},
		{Dir: filepath.Join(dataDir, "playbooks"), Type: types.DocTypePlaybook},
		{Dir: filepath.Join(dataDir, "roadmaps"), Type: types.DocTypeRoadmap},
	}
}

// LoadDocuments reads every *.md file of each source, sorted by name.
// A missing folder contributes nothing.
func LoadDocuments(sources []Source) ([]types.Document, error) {
	var docs []types.Document
	for _, src := range sources {
		paths, err := filepath.Glob(filepath.Join(src.Dir, "*.md"))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", src.Dir, err)
		}
		slices.Sort(paths)

		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", p, err)
			}
			doc := types.Document{
				Content: string(data),
				Metadata: map[string]string{
					types.MetaType:   src.Type,
					types.MetaSource: filepath.Base(p),
				},
			}
			if skills := SkillsLine(doc.Content); skills != "" {
				doc.Metadata[types.MetaSkills] = skills
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// SkillsLine finds the first "Skills:" line and returns its comma list
// re-joined with pipes. Empty when there is no such line.
func SkillsLine(text string) string {
	for line := range strings.Lines(text) {
		s := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(s), "skills:") {
			continue
		}
		var out []string
		for _, part := range strings.Split(s[len("skills:"):], ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return strings.Join(out, "|")
	}
	return ""
}
