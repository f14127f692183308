package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"skillgap/internal/analysis"
	"skillgap/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "GapReport", &GapReportTextFormatter{})
	registry.RegisterFormatter("markdown", "GapReport", &GapReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "RoleScope", &RoleScopeTextFormatter{})
	registry.RegisterFormatter("markdown", "RoleScope", &RoleScopeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.GapReport, types.GapReport:
		return "GapReport"
	case types.RoleScope, *types.RoleScope:
		return "RoleScope"
	default:
		return "any"
	}
}

func asReport(data any) (*types.GapReport, error) {
	switch r := data.(type) {
	case *types.GapReport:
		if r == nil {
			return nil, fmt.Errorf("nil GapReport")
		}
		return r, nil
	case types.GapReport:
		return &r, nil
	}
	return nil, fmt.Errorf("expected GapReport, got %T", data)
}

func asScope(data any) (types.RoleScope, error) {
	switch s := data.(type) {
	case types.RoleScope:
		return s, nil
	case *types.RoleScope:
		if s != nil {
			return *s, nil
		}
	}
	return types.RoleScope{}, fmt.Errorf("expected RoleScope, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// GapReportTextFormatter renders a report for the terminal
type GapReportTextFormatter struct{}

func (f *GapReportTextFormatter) Format(data any) (string, error) {
	r, err := asReport(data)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Analyzing for role: %s\n", r.TargetRole)
	if r.CanonicalRole != r.TargetRole {
		fmt.Fprintf(&out, "Matched role profile: %s\n", r.CanonicalRole)
	}
	out.WriteString("\n=== LLM INSIGHTS ===\n\n")
	out.WriteString(analysis.NarrativeText(r))
	out.WriteString("\n\n=== MATCHED SKILLS ===\n")
	out.WriteString(joinOrNone(r.Matched))
	out.WriteString("\n\n=== MISSING SKILLS ===\n")
	out.WriteString(analysis.MissingText(r))
	out.WriteString("\n")

	if len(r.Roadmap) > 0 {
		out.WriteString("\n=== LEARNING ROADMAP ===\n")
		for _, w := range r.Roadmap {
			fmt.Fprintf(&out, "\nWeek %d: %s\n", w.Week, w.Title)
			fmt.Fprintf(&out, "  Focus: %s\n", strings.Join(w.Focus, ", "))
			for _, t := range w.Tasks {
				fmt.Fprintf(&out, "  - %s\n", t)
			}
			for _, res := range w.Resources {
				fmt.Fprintf(&out, "  * %s\n", res)
			}
		}
	}

	fmt.Fprintf(&out, "\nGenerated at %s\n", timestamp(r.GeneratedAt))
	return out.String(), nil
}

func (f *GapReportTextFormatter) SupportedType() string {
	return "GapReport"
}

// GapReportMarkdownFormatter renders a report as markdown
type GapReportMarkdownFormatter struct{}

func (f *GapReportMarkdownFormatter) Format(data any) (string, error) {
	r, err := asReport(data)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("# Skill Gap Report\n\n")
	fmt.Fprintf(&out, "Analyzing for role: **%s**\n\n", r.TargetRole)

	out.WriteString("## LLM Insights\n\n")
	out.WriteString(analysis.NarrativeText(r))
	out.WriteString("\n\n")

	if r.Scope.Source != "" {
		out.WriteString("## Role Scope\n\n")
		fmt.Fprintf(&out, "- **Role file:** %s\n", r.Scope.Source)
		fmt.Fprintf(&out, "- **Core:** %s\n", joinOrNone(r.Scope.Core.Sorted()))
		fmt.Fprintf(&out, "- **Optional:** %s\n", joinOrNone(r.Scope.Optional.Sorted()))
		fmt.Fprintf(&out, "- **Excluded:** %s\n\n", joinOrNone(r.Scope.Exclude.Sorted()))
	}

	out.WriteString("## Matched Skills\n\n")
	out.WriteString(joinOrNone(r.Matched))
	out.WriteString("\n\n## Missing Skills\n\n")
	out.WriteString(analysis.MissingText(r))
	out.WriteString("\n")

	if len(r.Profile) > 0 {
		out.WriteString("\n## CV Skill Evidence\n\n")
		out.WriteString("| Skill | Score | Mentions |\n|---|---|---|\n")
		names := r.Profile.Names().Sorted()
		for _, name := range names {
			ev := r.Profile[name]
			fmt.Fprintf(&out, "| %s | %d | %d |\n", name, ev.Score, ev.Mentions)
		}
	}

	if len(r.Roadmap) > 0 {
		out.WriteString("\n## Learning Roadmap\n")
		for _, w := range r.Roadmap {
			fmt.Fprintf(&out, "\n### Week %d: %s\n\n", w.Week, w.Title)
			fmt.Fprintf(&out, "**Focus:** %s\n\n", strings.Join(w.Focus, ", "))
			for _, t := range w.Tasks {
				fmt.Fprintf(&out, "- %s\n", t)
			}
			if len(w.Resources) > 0 {
				out.WriteString("\n**Resources:**\n\n")
				for _, res := range w.Resources {
					fmt.Fprintf(&out, "- %s\n", res)
				}
			}
		}
	}

	fmt.Fprintf(&out, "\n_Generated at %s_\n", timestamp(r.GeneratedAt))
	return out.String(), nil
}

func (f *GapReportMarkdownFormatter) SupportedType() string {
	return "GapReport"
}

// RoleScopeTextFormatter renders a role scope for the terminal
type RoleScopeTextFormatter struct{}

func (f *RoleScopeTextFormatter) Format(data any) (string, error) {
	s, err := asScope(data)
	if err != nil {
		return "", err
	}
	source := s.Source
	if source == "" {
		source = "none"
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Role file: %s\n", source)
	fmt.Fprintf(&out, "Core: %s\n", joinOrNone(s.Core.Sorted()))
	fmt.Fprintf(&out, "Optional: %s\n", joinOrNone(s.Optional.Sorted()))
	fmt.Fprintf(&out, "Excluded: %s\n", joinOrNone(s.Exclude.Sorted()))
	return out.String(), nil
}

func (f *RoleScopeTextFormatter) SupportedType() string {
	return "RoleScope"
}

// RoleScopeMarkdownFormatter renders a role scope as markdown
type RoleScopeMarkdownFormatter struct{}

func (f *RoleScopeMarkdownFormatter) Format(data any) (string, error) {
	s, err := asScope(data)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("# Role Scope\n\n")
	if s.Source == "" {
		out.WriteString("_No role file found; required skills come from retrieval._\n")
		return out.String(), nil
	}
	fmt.Fprintf(&out, "**Role file:** %s\n\n", s.Source)
	for _, section := range []struct {
		title string
		set   types.SkillSet
	}{
		{"Core", s.Core},
		{"Optional", s.Optional},
		{"Excluded", s.Exclude},
	} {
		fmt.Fprintf(&out, "## %s\n\n", section.title)
		if section.set.Len() == 0 {
			out.WriteString("None\n\n")
			continue
		}
		for _, name := range section.set.Sorted() {
			fmt.Fprintf(&out, "- %s\n", name)
		}
		out.WriteString("\n")
	}
	return out.String(), nil
}

func (f *RoleScopeMarkdownFormatter) SupportedType() string {
	return "RoleScope"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
