// Package analysis runs the skill-gap pipeline for one CV and target role.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"skillgap/internal/ai"
	"skillgap/internal/errors"
	"skillgap/internal/extract"
	"skillgap/internal/gap"
	"skillgap/internal/retrieval"
	"skillgap/internal/roadmap"
	"skillgap/internal/roles"
	"skillgap/internal/skills"
	"skillgap/internal/types"
)

// Report text shown in place of a narrative
const (
	NarrativeUnavailablePrefix = "LLM insights are temporarily unavailable.\n\nReason: "
	NarrativeSkippedText       = "LLM insights were skipped."
	NoMissingSkillsText        = "No missing core skills detected."
)

// Narrative grounding limits
const (
	snippetDocs  = 4
	snippetChars = 700
)

// Recorder receives pipeline measurements. The observability package
// provides the production implementation.
type Recorder interface {
	RecordAnalysis(ctx context.Context, role string, matched, missing int, duration time.Duration, err error)
	RecordRetrieval(ctx context.Context, docType string, results int, duration time.Duration)
	RecordNarrative(ctx context.Context, status string, duration time.Duration, usage *ai.TokenUsage)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalysis(context.Context, string, int, int, time.Duration, error) {}
func (nopRecorder) RecordRetrieval(context.Context, string, int, time.Duration)            {}
func (nopRecorder) RecordNarrative(context.Context, string, time.Duration, *ai.TokenUsage) {}

// Options configure an Analyzer. Retriever is required; a nil Narrator
// makes every narrative request unavailable.
type Options struct {
	Catalog   *roles.Catalog
	Skills    *skills.Table
	RolesDir  string
	Retriever retrieval.Retriever
	Narrator  ai.Narrator
	K         int
	Recorder  Recorder
	Logger    *errors.Logger
	Now       func() time.Time
}

// Analyzer runs analyses. It holds no per-request state; callers serialise
// analyses against index rebuilds.
type Analyzer struct {
	catalog   *roles.Catalog
	skills    *skills.Table
	rolesDir  string
	retriever retrieval.Retriever
	narrator  ai.Narrator
	k         int
	recorder  Recorder
	logger    *errors.Logger
	now       func() time.Time
}

// New creates an Analyzer, filling unset options with package defaults.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		catalog:   opts.Catalog,
		skills:    opts.Skills,
		rolesDir:  opts.RolesDir,
		retriever: opts.Retriever,
		narrator:  opts.Narrator,
		k:         opts.K,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if a.catalog == nil {
		a.catalog = roles.Default()
	}
	if a.skills == nil {
		a.skills = skills.Default()
	}
	if a.k <= 0 {
		a.k = retrieval.DefaultK
	}
	if a.recorder == nil {
		a.recorder = nopRecorder{}
	}
	if a.logger == nil {
		a.logger = errors.NewNopLogger()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Analyze validates req and runs the full pipeline. Narrative failures are
// folded into the report; every other failure is returned.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (report *types.GapReport, err error) {
	start := time.Now()
	ctx, span := otel.Tracer("skillgap.analysis").Start(ctx, "analysis.analyze")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	targetRole := req.TargetRole()
	roleKey := a.catalog.Normalize(targetRole)
	span.SetAttributes(
		attribute.String("target_role", targetRole),
		attribute.String("canonical_role", roleKey),
		attribute.Bool("use_llm", req.UseLLM),
	)
	defer func() {
		matched, missing := 0, 0
		if report != nil {
			matched, missing = len(report.Matched), len(report.Missing)
		}
		a.recorder.RecordAnalysis(ctx, roleKey, matched, missing, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	scope := a.catalog.LoadScope(a.rolesDir, roleKey)
	instructions := ai.BuildInstructions(req.OutputStyle, req.SourcesOnly, req.CustomInstructions)

	cvText, err := a.cvText(req)
	if err != nil {
		return nil, err
	}

	if err := a.retriever.EnsureIndex(ctx); err != nil {
		return nil, wrapRetrieval(errors.ErrCodeIndexBuildFailed, "Failed to prepare knowledge base index", err)
	}

	profile := a.skills.Extract(cvText)

	required := gap.RequiredFromScope(scope)
	if required.Len() == 0 {
		docs, err := a.retrieve(ctx, roleKey+" required skills tools stack", types.DocTypeRole)
		if err != nil {
			return nil, err
		}
		required = gap.RequiredFromDocuments(docs)
	}
	result := gap.Compute(required, profile, scope)

	var playbooks []types.Document
	if len(result.Missing) > 0 {
		playbooks, err = a.retrieve(ctx, "Learning guidance for: "+strings.Join(result.Missing, ", "), types.DocTypePlaybook)
		if err != nil {
			return nil, err
		}
	}

	roadmaps, err := a.retrieve(ctx, roleKey+" roadmap responsibilities skills learning path", types.DocTypeRoadmap)
	if err != nil {
		return nil, err
	}

	report = &types.GapReport{
		ID:            uuid.NewString(),
		TargetRole:    targetRole,
		CanonicalRole: roleKey,
		Scope:         scope,
		Profile:       skills.ApplyRoleExclusions(profile, scope),
		Required:      result.Required,
		Matched:       result.Matched,
		Missing:       result.Missing,
		Roadmap:       roadmap.Build(result.Missing, playbooks),
		GeneratedAt:   a.now(),
	}

	if !req.UseLLM {
		report.NarrativeStatus = types.NarrativeSkipped
		return report, nil
	}

	narrativeReq := types.NarrativeRequest{
		TargetRole:       targetRole,
		Matched:          report.Matched,
		Missing:          report.Missing,
		Profile:          report.Profile,
		Scope:            scope,
		PlaybookSnippets: roadmap.NarrativeContext(playbooks, snippetDocs, snippetChars),
		RoadmapSnippets:  roadmap.NarrativeContext(roadmaps, snippetDocs, snippetChars),
		Instructions:     instructions,
	}
	if req.UseJobDescription {
		narrativeReq.JobDescription = strings.TrimSpace(req.JobDescription)
	}
	report.Narrative, report.NarrativeStatus = a.narrate(ctx, narrativeReq)

	a.logger.Debug("Analysis complete",
		"report_id", report.ID,
		"role", roleKey,
		"scope_source", scope.Source,
		"matched", len(report.Matched),
		"missing", len(report.Missing),
		"narrative_status", report.NarrativeStatus)
	return report, nil
}

// cvText returns the plain CV text, extracting it from the uploaded file
// when no text was given.
func (a *Analyzer) cvText(req Request) (string, error) {
	if strings.TrimSpace(req.CVText) != "" {
		return req.CVText, nil
	}
	return extract.ExtractText(req.CVFileName, req.CVContent)
}

func (a *Analyzer) retrieve(ctx context.Context, query, docType string) ([]types.Document, error) {
	start := time.Now()
	docs, err := a.retriever.Retrieve(ctx, query, a.k, retrieval.TypeFilter(docType))
	if err != nil {
		return nil, wrapRetrieval(errors.ErrCodeRetrievalFailed, fmt.Sprintf("Failed to retrieve %s documents", docType), err)
	}
	a.recorder.RecordRetrieval(ctx, docType, len(docs), time.Since(start))
	return docs, nil
}

// narrate asks the narrator for a report. Any failure becomes the
// unavailable placeholder text.
func (a *Analyzer) narrate(ctx context.Context, req types.NarrativeRequest) (string, string) {
	start := time.Now()
	if a.narrator == nil {
		err := errors.NewAIError(errors.ErrCodeAIServiceFailed, "narrative generation is not configured", nil)
		a.recorder.RecordNarrative(ctx, types.NarrativeUnavailable, time.Since(start), nil)
		return NarrativeUnavailablePrefix + err.Error(), types.NarrativeUnavailable
	}

	text, usage, err := a.narrator.GenerateReport(ctx, req)
	if err != nil {
		a.logger.LogError(err, "Narrative generation failed", "role", req.TargetRole)
		a.recorder.RecordNarrative(ctx, types.NarrativeUnavailable, time.Since(start), usage)
		return NarrativeUnavailablePrefix + err.Error(), types.NarrativeUnavailable
	}
	a.recorder.RecordNarrative(ctx, types.NarrativeGenerated, time.Since(start), usage)
	return text, types.NarrativeGenerated
}

// wrapRetrieval keeps AppErrors raised by the index and wraps anything else.
func wrapRetrieval(code, message string, err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewRetrievalError(code, message, err)
}

// NarrativeText is the narrative as shown to a reader.
func NarrativeText(r *types.GapReport) string {
	if r.NarrativeStatus == types.NarrativeSkipped || r.Narrative == "" {
		return NarrativeSkippedText
	}
	return r.Narrative
}

// MissingText is the missing-skills line as shown to a reader.
func MissingText(r *types.GapReport) string {
	if len(r.Missing) == 0 {
		return NoMissingSkillsText
	}
	return strings.Join(r.Missing, ", ")
}
