package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillSetAlgebra(t *testing.T) {
	a := NewSkillSet("Python", "SQL", "Docker")
	b := NewSkillSet("SQL", "Git")

	assert.Equal(t, []string{"Docker", "Git", "Python", "SQL"}, a.Union(b).Sorted())
	assert.Equal(t, []string{"SQL"}, a.Intersect(b).Sorted())
	assert.Equal(t, []string{"Docker", "Python"}, a.Minus(b).Sorted())

	// operands untouched
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 2, b.Len())
}

func TestSkillSetIgnoresEmptyNames(t *testing.T) {
	s := NewSkillSet("", "Python", "")
	assert.Equal(t, []string{"Python"}, s.Sorted())
}

func TestSkillSetSortIsCaseSensitive(t *testing.T) {
	s := NewSkillSet("dbt", "Docker", "CI/CD")
	assert.Equal(t, []string{"CI/CD", "Docker", "dbt"}, s.Sorted())
}

func TestSkillSetJSON(t *testing.T) {
	data, err := json.Marshal(NewSkillSet("SQL", "Python"))
	require.NoError(t, err)
	assert.JSONEq(t, `["Python","SQL"]`, string(data))

	var back SkillSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Has("Python"))
	assert.True(t, back.Has("SQL"))
}

func TestRoleScopeDeclared(t *testing.T) {
	scope := EmptyScope()
	assert.False(t, scope.HasDeclaredSkills())

	scope.Optional.Add("Docker")
	assert.True(t, scope.HasDeclaredSkills())
	assert.Equal(t, []string{"Docker"}, scope.Declared().Sorted())
}
