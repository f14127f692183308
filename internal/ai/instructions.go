package ai

import "strings"

// Output styles offered to users. Unknown styles add no style line.
const (
	StyleProfessional      = "Professional (default)"
	StyleConcise           = "Concise"
	StyleDetailed          = "Detailed"
	StyleRecruiterFriendly = "Recruiter-friendly"
)

// Styles lists the supported output styles in display order.
var Styles = []string{StyleProfessional, StyleConcise, StyleDetailed, StyleRecruiterFriendly}

const (
	baseInstruction = "You are a career skill-gap advisor. Use the provided CV skill evidence and " +
		"retrieved documents to generate role-specific recommendations."
	groundingInstruction = "Important: Use only the retrieved sources as facts. If a claim is not " +
		"supported by the sources, say 'Not found in provided sources'."
)

var styleInstructions = map[string]string{
	StyleProfessional:      "Write in a professional, structured tone.",
	StyleConcise:           "Be concise. Use short paragraphs and bullet points only.",
	StyleDetailed:          "Be detailed but avoid repeating information.",
	StyleRecruiterFriendly: "Write in recruiter-friendly language with clear impact statements.",
}

// BuildInstructions assembles the advisor instructions sent with a narrative request.
func BuildInstructions(style string, sourcesOnly bool, custom string) string {
	grounding := ""
	if sourcesOnly {
		grounding = groundingInstruction
	}
	parts := []string{baseInstruction, styleInstructions[style], grounding, strings.TrimSpace(custom)}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
