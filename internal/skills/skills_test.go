package skills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap/internal/types"
)

func TestDefaultTableOrder(t *testing.T) {
	names := Default().Names()
	require.Len(t, names, 28)
	assert.Equal(t, "Python", names[0])
	assert.Equal(t, "Cloud", names[len(names)-1])
}

func TestExtractSingleMentions(t *testing.T) {
	profile := Extract("Built dashboards using Power BI and SQL queries daily.")

	require.Contains(t, profile, "Power BI")
	require.Contains(t, profile, "SQL")
	assert.Equal(t, 1, profile["Power BI"].Mentions)
	assert.Equal(t, 1, profile["Power BI"].Score)
	assert.Equal(t, 1, profile["SQL"].Mentions)
	assert.Equal(t, 1, profile["SQL"].Score)
	assert.Equal(t, []string{"Built dashboards using Power BI and SQL queries daily."}, profile["SQL"].Evidence)
}

func TestExtractNoFalsePositives(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "Certified welder. Forklift license. Team lead."} {
		assert.Empty(t, Extract(text), "text %q", text)
	}
}

func TestExtractCountsAcrossPatterns(t *testing.T) {
	profile := Extract("Set up CI/CD with GitHub Actions")

	require.Contains(t, profile, "CI/CD")
	assert.Equal(t, 2, profile["CI/CD"].Mentions)
	assert.Equal(t, 2, profile["CI/CD"].Score)
	require.Contains(t, profile, "Git")
	assert.Equal(t, 1, profile["Git"].Mentions)
}

func TestExtractCaseInsensitive(t *testing.T) {
	profile := Extract("PYTHON, Python, python and pYtHoN")

	require.Contains(t, profile, "Python")
	assert.Equal(t, 4, profile["Python"].Mentions)
	assert.Equal(t, 3, profile["Python"].Score)
}

func TestExtractEvidenceCappedAndDistinct(t *testing.T) {
	var b strings.Builder
	for i := range 7 {
		b.WriteString("  python project ")
		b.WriteByte(byte('a' + i))
		b.WriteString("  \n\n")
	}
	profile := Extract(b.String())
	ev := profile["Python"]
	assert.Equal(t, 7, ev.Mentions)
	require.Len(t, ev.Evidence, MaxEvidenceLines)
	assert.Equal(t, "python project a", ev.Evidence[0])
	assert.Equal(t, "python project e", ev.Evidence[4])

	dup := Extract("Python\nPython\nSQL")
	assert.Equal(t, 2, dup["Python"].Mentions)
	assert.Equal(t, []string{"Python"}, dup["Python"].Evidence)
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "Python, SQL, Docker\nAirflow pipelines on AWS\nPyTorch and torch.compile\nRAG with LangChain and FAISS"
	assert.Equal(t, Extract(text), Extract(text))
}

func TestScoreStepFunction(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 10: 3}
	for mentions, want := range cases {
		assert.Equal(t, want, Score(mentions), "mentions=%d", mentions)
	}
	for m := 0; m < 50; m++ {
		assert.LessOrEqual(t, Score(m), Score(m+1))
	}
}

func TestApplyRoleExclusions(t *testing.T) {
	profile := Extract("Python and SQL and Docker")
	scope := types.EmptyScope()
	scope.Exclude.Add("python")
	scope.Exclude.Add("Excel")

	filtered := ApplyRoleExclusions(profile, scope)

	assert.NotContains(t, filtered, "Python")
	assert.Contains(t, filtered, "SQL")
	assert.Contains(t, filtered, "Docker")
	assert.Contains(t, profile, "Python", "original profile must be untouched")
}

func TestParseTableErrors(t *testing.T) {
	tests := map[string]string{
		"bad regex": "- name: X\n  patterns: ['(']\n",
		"duplicate": "- name: X\n  patterns: ['x']\n- name: X\n  patterns: ['y']\n",
		"no name":   "- patterns: ['x']\n",
		"empty":     "- name: X\n  patterns: []\n",
		"not yaml":  "{{",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(data))
			assert.Error(t, err)
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	text := strings.Repeat("Python SQL Docker Kafka Spark Airflow LangChain RAG embeddings\n", 40)
	for b.Loop() {
		Extract(text)
	}
}
