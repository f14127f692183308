package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgap/internal/ai"
	"skillgap/internal/errors"
	"skillgap/internal/retrieval"
	"skillgap/internal/types"
)

type query struct {
	text    string
	docType string
}

type fakeRetriever struct {
	docs      map[string][]types.Document
	queries   []query
	ensured   int
	ensureErr error
	err       error
}

func (f *fakeRetriever) Retrieve(_ context.Context, q string, k int, filter retrieval.Filter) ([]types.Document, error) {
	docType := filter[types.MetaType]
	f.queries = append(f.queries, query{q, docType})
	if f.err != nil {
		return nil, f.err
	}
	docs := f.docs[docType]
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

func (f *fakeRetriever) EnsureIndex(context.Context) error {
	f.ensured++
	return f.ensureErr
}

func (f *fakeRetriever) RebuildIndex(context.Context) error { return nil }

type fakeNarrator struct {
	text string
	err  error
	got  *types.NarrativeRequest
}

func (f *fakeNarrator) GenerateReport(_ context.Context, req types.NarrativeRequest) (string, *ai.TokenUsage, error) {
	f.got = &req
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, &ai.TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}, nil
}

func (f *fakeNarrator) GetModelInfo(context.Context) *ai.ModelInfo { return &ai.ModelInfo{} }
func (f *fakeNarrator) Close() error                                { return nil }

type recorded struct {
	analyses   int
	retrievals []string
	narratives []string
	lastErr    error
}

func (r *recorded) RecordAnalysis(_ context.Context, _ string, _, _ int, _ time.Duration, err error) {
	r.analyses++
	r.lastErr = err
}

func (r *recorded) RecordRetrieval(_ context.Context, docType string, _ int, _ time.Duration) {
	r.retrievals = append(r.retrievals, docType)
}

func (r *recorded) RecordNarrative(_ context.Context, status string, _ time.Duration, _ *ai.TokenUsage) {
	r.narratives = append(r.narratives, status)
}

const sampleCV = `Jane Doe
Data analyst with Python and SQL experience.
Built dashboards in Tableau. Wrote Python scripts for ETL.
`

func writeScope(t *testing.T, file, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
	return dir
}

func fixedNow() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func validRequest() Request {
	req := NewRequest()
	req.CVText = sampleCV
	req.Role = "Data/BI Analyst"
	return req
}

func TestAnalyzeWithDeclaredScope(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL, Python, Power BI\nOPTIONAL_SKILLS: dbt\nEXCLUDE_SKILLS: Docker\n")
	retriever := &fakeRetriever{docs: map[string][]types.Document{
		types.DocTypePlaybook: {{Content: "Power BI basics\nDAX\nModelling\nExtra", Metadata: map[string]string{types.MetaSource: "powerbi.md"}}},
		types.DocTypeRoadmap:  {{Content: "Analyst roadmap", Metadata: map[string]string{types.MetaSource: "analyst.md"}}},
	}}
	narrator := &fakeNarrator{text: "Focus on Power BI."}
	rec := &recorded{}

	a := New(Options{RolesDir: dir, Retriever: retriever, Narrator: narrator, Recorder: rec, Now: fixedNow})
	report, err := a.Analyze(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "Data/BI Analyst", report.TargetRole)
	assert.Equal(t, "Data/BI Analyst", report.CanonicalRole)
	assert.Equal(t, "data_bi_analyst.md", report.Scope.Source)
	assert.Equal(t, []string{"Power BI", "Python", "SQL", "dbt"}, report.Required)
	assert.Equal(t, []string{"Python", "SQL"}, report.Matched)
	assert.Equal(t, []string{"Power BI", "dbt"}, report.Missing)
	assert.Equal(t, fixedNow(), report.GeneratedAt)

	// Scope declared skills, so no role retrieval happens.
	require.Len(t, retriever.queries, 2)
	assert.Equal(t, query{"Learning guidance for: Power BI, dbt", types.DocTypePlaybook}, retriever.queries[0])
	assert.Equal(t, query{"Data/BI Analyst roadmap responsibilities skills learning path", types.DocTypeRoadmap}, retriever.queries[1])
	assert.Equal(t, 1, retriever.ensured)

	require.Len(t, report.Roadmap, 1)
	assert.Equal(t, []string{"Power BI", "dbt"}, report.Roadmap[0].Focus)
	assert.Equal(t, []string{"powerbi.md: Power BI basics | DAX | Modelling"}, report.Roadmap[0].Resources)

	assert.Equal(t, types.NarrativeGenerated, report.NarrativeStatus)
	assert.Equal(t, "Focus on Power BI.", report.Narrative)
	require.NotNil(t, narrator.got)
	assert.Equal(t, "Power BI basics\nDAX\nModelling\nExtra", narrator.got.PlaybookSnippets)
	assert.Equal(t, "Analyst roadmap", narrator.got.RoadmapSnippets)
	assert.Contains(t, narrator.got.Instructions, "Important: Use only the retrieved sources as facts.")
	assert.Empty(t, narrator.got.JobDescription)

	assert.Equal(t, 1, rec.analyses)
	assert.NoError(t, rec.lastErr)
	assert.Equal(t, []string{types.DocTypePlaybook, types.DocTypeRoadmap}, rec.retrievals)
	assert.Equal(t, []string{types.NarrativeGenerated}, rec.narratives)
}

func TestAnalyzeFallsBackToRetrievedRoleSkills(t *testing.T) {
	retriever := &fakeRetriever{docs: map[string][]types.Document{
		types.DocTypeRole: {
			{Content: "role", Metadata: map[string]string{types.MetaSkills: "Python| Kafka |"}},
			{Content: "role", Metadata: map[string]string{types.MetaSkills: "Spark"}},
		},
	}}

	req := validRequest()
	req.Role = ""
	req.CustomRole = "  Staff Welder  "
	req.UseLLM = false

	a := New(Options{RolesDir: t.TempDir(), Retriever: retriever})
	report, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Staff Welder", report.CanonicalRole)
	assert.Empty(t, report.Scope.Source)
	assert.Equal(t, query{"Staff Welder required skills tools stack", types.DocTypeRole}, retriever.queries[0])
	assert.Equal(t, []string{"Python"}, report.Matched)
	assert.Equal(t, []string{"Kafka", "Spark"}, report.Missing)

	assert.Equal(t, types.NarrativeSkipped, report.NarrativeStatus)
	assert.Equal(t, NarrativeSkippedText, NarrativeText(report))
	assert.Equal(t, "Kafka, Spark", MissingText(report))
}

func TestAnalyzeNoMissingSkipsPlaybooks(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL, Python\n")
	retriever := &fakeRetriever{}

	req := validRequest()
	req.UseLLM = false
	report, err := New(Options{RolesDir: dir, Retriever: retriever}).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Roadmap)
	require.Len(t, retriever.queries, 1)
	assert.Equal(t, types.DocTypeRoadmap, retriever.queries[0].docType)
	assert.Equal(t, NoMissingSkillsText, MissingText(report))
}

func TestAnalyzeNarrativeFailureIsRecoverable(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL, Airflow\n")
	narrator := &fakeNarrator{err: errors.NewAIError(errors.ErrCodeMissingAPIKey, "Missing Gemini API key", nil)}
	rec := &recorded{}

	report, err := New(Options{RolesDir: dir, Retriever: &fakeRetriever{}, Narrator: narrator, Recorder: rec}).
		Analyze(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, types.NarrativeUnavailable, report.NarrativeStatus)
	assert.Equal(t, NarrativeUnavailablePrefix+"MISSING_API_KEY: Missing Gemini API key", report.Narrative)
	assert.Equal(t, []string{types.NarrativeUnavailable}, rec.narratives)
}

func TestAnalyzeWithoutNarrator(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL\n")

	report, err := New(Options{RolesDir: dir, Retriever: &fakeRetriever{}}).Analyze(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, types.NarrativeUnavailable, report.NarrativeStatus)
	assert.True(t, strings.HasPrefix(report.Narrative, NarrativeUnavailablePrefix))
}

func TestAnalyzePassesJobDescription(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL\n")
	narrator := &fakeNarrator{text: "ok"}

	req := validRequest()
	req.UseJobDescription = true
	req.JobDescription = "  " + strings.Repeat("We need SQL and dashboards. ", 3) + "  "

	_, err := New(Options{RolesDir: dir, Retriever: &fakeRetriever{}, Narrator: narrator}).Analyze(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, narrator.got)
	assert.Equal(t, strings.TrimSpace(req.JobDescription), narrator.got.JobDescription)
}

func TestAnalyzeExcludedSkillsLeaveProfile(t *testing.T) {
	dir := writeScope(t, "data_bi_analyst.md", "CORE_SKILLS: SQL\nEXCLUDE_SKILLS: Tableau\n")
	req := validRequest()
	req.UseLLM = false

	report, err := New(Options{RolesDir: dir, Retriever: &fakeRetriever{}}).Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, report.Profile, "Python")
	assert.NotContains(t, report.Profile, "Tableau")
}

func TestAnalyzeValidationStopsPipeline(t *testing.T) {
	retriever := &fakeRetriever{}
	rec := &recorded{}
	a := New(Options{Retriever: retriever, Recorder: rec})

	req := validRequest()
	req.CVText = "   "
	_, err := a.Analyze(context.Background(), req)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, MsgMissingCV, appErr.Message)
	assert.Zero(t, retriever.ensured)
	assert.Empty(t, retriever.queries)
	assert.Zero(t, rec.analyses)
}

func TestAnalyzeUnsupportedUpload(t *testing.T) {
	retriever := &fakeRetriever{}
	req := validRequest()
	req.CVText = ""
	req.CVFileName = "cv.txt"
	req.CVContent = []byte("Python")

	_, err := New(Options{Retriever: retriever}).Analyze(context.Background(), req)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnsupportedFileType, appErr.Code)
	assert.Zero(t, retriever.ensured)
}

func TestAnalyzeRetrievalFailures(t *testing.T) {
	t.Run("index", func(t *testing.T) {
		rec := &recorded{}
		retriever := &fakeRetriever{ensureErr: fmt.Errorf("disk full")}
		_, err := New(Options{Retriever: retriever, Recorder: rec}).Analyze(context.Background(), validRequest())

		require.True(t, errors.IsType(err, errors.ErrorTypeRetrieval))
		appErr, _ := errors.As(err)
		assert.Equal(t, errors.ErrCodeIndexBuildFailed, appErr.Code)
		assert.False(t, errors.IsRecoverable(err))
		assert.Error(t, rec.lastErr)
	})

	t.Run("retrieve", func(t *testing.T) {
		retriever := &fakeRetriever{err: fmt.Errorf("closed")}
		_, err := New(Options{RolesDir: t.TempDir(), Retriever: retriever}).Analyze(context.Background(), validRequest())

		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeRetrievalFailed, appErr.Code)
	})
}
