// Package gap computes matched and missing skills for a target role.
package gap

import (
	"strings"

	"skillgap/internal/types"
)

// Result is the outcome of a gap computation
type Result struct {
	Required []string `json:"required"`
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
}

// RequiredFromScope returns core ∪ optional. Empty when the role has no
// declared skills, in which case callers fall back to retrieval.
func RequiredFromScope(scope types.RoleScope) types.SkillSet {
	return scope.Declared()
}

// RequiredFromDocuments unions the pipe-delimited skills metadata of role documents.
func RequiredFromDocuments(docs []types.Document) types.SkillSet {
	required := types.SkillSet{}
	for _, d := range docs {
		for _, s := range strings.Split(d.Metadata[types.MetaSkills], "|") {
			required.Add(strings.TrimSpace(s))
		}
	}
	return required
}

// FilterByScope confines required to the declared core/optional universe
// when one exists and always drops excluded skills. Exclusion ignores case,
// as it does for the CV profile.
func FilterByScope(required types.SkillSet, scope types.RoleScope) types.SkillSet {
	allowed := required
	if scope.HasDeclaredSkills() {
		allowed = scope.Declared()
	}
	return withoutExcluded(required.Intersect(allowed), scope.Exclude)
}

func withoutExcluded(set, exclude types.SkillSet) types.SkillSet {
	excluded := make(map[string]bool, len(exclude))
	for name := range exclude {
		excluded[strings.ToLower(name)] = true
	}
	out := types.SkillSet{}
	for name := range set {
		if !excluded[strings.ToLower(name)] {
			out.Add(name)
		}
	}
	return out
}

// Compute splits the scope-filtered required set into skills the CV shows
// and skills it lacks. Both slices are sorted and never nil.
func Compute(required types.SkillSet, profile types.SkillProfile, scope types.RoleScope) Result {
	effective := FilterByScope(required, scope)
	cv := profile.Names()

	return Result{
		Required: effective.Sorted(),
		Matched:  effective.Intersect(cv).Sorted(),
		Missing:  effective.Minus(cv).Sorted(),
	}
}
