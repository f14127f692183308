package formatters

import (
	"strings"
	"testing"
	"time"

	"skillgap/internal/analysis"
	"skillgap/internal/types"
)

func sampleReport() *types.GapReport {
	scope := types.EmptyScope()
	scope.Core = types.NewSkillSet("SQL", "Airflow")
	scope.Source = "data_engineer.md"
	return &types.GapReport{
		ID:              "r1",
		TargetRole:      "Senior Data Engineer",
		CanonicalRole:   "Data Engineer",
		Scope:           scope,
		Profile:         types.SkillProfile{"SQL": {Mentions: 2, Score: 2}},
		Required:        []string{"Airflow", "SQL"},
		Matched:         []string{"SQL"},
		Missing:         []string{"Airflow"},
		Roadmap:         []types.Week{{Week: 1, Title: "Foundation & Target Gaps", Focus: []string{"Airflow"}, Tasks: []string{"Learn core concepts for: Airflow"}, Resources: []string{"airflow.md: DAGs"}}},
		NarrativeStatus: types.NarrativeSkipped,
		GeneratedAt:     time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestGapReportTextFormatter(t *testing.T) {
	out, err := NewFormatterRegistry().Format(sampleReport(), "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{
		"Analyzing for role: Senior Data Engineer",
		"Matched role profile: Data Engineer",
		analysis.NarrativeSkippedText,
		"=== MISSING SKILLS ===\nAirflow",
		"Week 1: Foundation & Target Gaps",
		"  * airflow.md: DAGs",
		"Generated at 2025-03-04 05:06:07",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\n%s", want, out)
		}
	}
}

func TestGapReportMarkdownFormatter(t *testing.T) {
	r := sampleReport()
	r.Missing = nil
	r.Roadmap = nil
	r.Narrative = "Learn Airflow."
	r.NarrativeStatus = types.NarrativeGenerated

	out, err := NewFormatterRegistry().Format(*r, "markdown")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{
		"# Skill Gap Report",
		"## LLM Insights\n\nLearn Airflow.",
		"- **Role file:** data_engineer.md",
		"- **Core:** Airflow, SQL",
		analysis.NoMissingSkillsText,
		"| SQL | 2 | 2 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Learning Roadmap") {
		t.Error("empty roadmap should not render a section")
	}
}

func TestRoleScopeFormatters(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(types.EmptyScope(), "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(out, "Role file: none") || !strings.Contains(out, "Core: None") {
		t.Errorf("unexpected empty scope text: %q", out)
	}

	scope := sampleReport().Scope
	out, err = registry.Format(&scope, "markdown")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(out, "## Core\n\n- Airflow\n- SQL\n") {
		t.Errorf("unexpected scope markdown: %q", out)
	}
}

func TestFormatterRegistry(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(map[string]int{"a": 1}, "json")
	if err != nil || out != "{\n  \"a\": 1\n}" {
		t.Errorf("json Format() = %q, %v", out, err)
	}

	if _, err := registry.Format(map[string]int{}, "text"); err == nil {
		t.Error("expected error for unregistered type")
	}

	got := strings.Join(registry.GetSupportedFormats(), ",")
	if got != "json,markdown,text" {
		t.Errorf("GetSupportedFormats() = %s", got)
	}
}
