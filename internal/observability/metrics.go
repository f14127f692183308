package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"skillgap/internal/ai"
	"skillgap/internal/config"
	"skillgap/internal/types"
)

// Metrics holds all custom metrics for skillgap
type Metrics struct {
	// Analysis metrics
	AnalysesTotal    metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	MatchedSkills    metric.Int64Histogram
	MissingSkills    metric.Int64Histogram

	// Retrieval metrics
	RetrievalDuration metric.Float64Histogram
	RetrievalResults  metric.Int64Histogram

	// Narrative metrics
	NarrativeRequests metric.Int64Counter
	NarrativeErrors   metric.Int64Counter
	NarrativeDuration metric.Float64Histogram
	NarrativeTokens   metric.Int64Histogram

	// Infrastructure metrics
	IndexBuilds        metric.Int64Counter
	IndexBuildDuration metric.Float64Histogram
	RateLimitHits      metric.Int64Counter
}

// newMetrics creates every instrument on meter.
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.AnalysesTotal, "skillgap_analyses_total", "Total number of skill-gap analyses"},
		{&m.NarrativeRequests, "skillgap_narrative_requests_total", "Total number of narrative requests"},
		{&m.NarrativeErrors, "skillgap_narrative_errors_total", "Total number of failed narrative requests"},
		{&m.IndexBuilds, "skillgap_index_builds_total", "Total number of knowledge-base index builds"},
		{&m.RateLimitHits, "skillgap_rate_limit_hits_total", "Total number of rate limit hits"},
	}
	for _, c := range counters {
		if *c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	durations := []struct {
		target *metric.Float64Histogram
		name   string
		desc   string
	}{
		{&m.AnalysisDuration, "skillgap_analysis_duration_seconds", "Time spent on one analysis"},
		{&m.RetrievalDuration, "skillgap_retrieval_duration_seconds", "Time spent on one retrieval query"},
		{&m.NarrativeDuration, "skillgap_narrative_duration_seconds", "Time spent generating a narrative"},
		{&m.IndexBuildDuration, "skillgap_index_build_duration_seconds", "Time spent building the index"},
	}
	for _, d := range durations {
		if *d.target, err = meter.Float64Histogram(d.name, metric.WithDescription(d.desc), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", d.name, err)
		}
	}

	sizes := []struct {
		target *metric.Int64Histogram
		name   string
		desc   string
		unit   string
	}{
		{&m.MatchedSkills, "skillgap_matched_skills", "Matched skills per analysis", "{skill}"},
		{&m.MissingSkills, "skillgap_missing_skills", "Missing skills per analysis", "{skill}"},
		{&m.RetrievalResults, "skillgap_retrieval_results", "Documents returned per retrieval query", "{document}"},
		{&m.NarrativeTokens, "skillgap_narrative_token_usage", "Token usage for narrative requests (input, output, total)", "tokens"},
	}
	for _, s := range sizes {
		if *s.target, err = meter.Int64Histogram(s.name, metric.WithDescription(s.desc), metric.WithUnit(s.unit)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", s.name, err)
		}
	}

	return m, nil
}

// Recorder records pipeline and server measurements, honouring the
// customMetrics switches. A nil custom config enables everything.
type Recorder struct {
	metrics *Metrics
	custom  *config.CustomMetricsConfig
}

// NewRecorder wraps existing instruments.
func NewRecorder(m *Metrics, custom *config.CustomMetricsConfig) *Recorder {
	return &Recorder{metrics: m, custom: custom}
}

func (r *Recorder) active() bool {
	return r != nil && r.metrics != nil
}

func (r *Recorder) business() bool {
	return r.active() && (r.custom == nil || r.custom.BusinessMetrics.Enabled)
}

func (r *Recorder) aiOps() bool {
	return r.active() && (r.custom == nil || r.custom.AIOperations.Enabled)
}

func (r *Recorder) infra() bool {
	return r.active() && (r.custom == nil || r.custom.Infrastructure.Enabled)
}

// RecordAnalysis records one finished (or failed) analysis.
func (r *Recorder) RecordAnalysis(ctx context.Context, role string, matched, missing int, duration time.Duration, err error) {
	if !r.business() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("role", role),
		attribute.Bool("success", err == nil),
	)
	r.metrics.AnalysesTotal.Add(ctx, 1, attrs)
	r.metrics.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)

	if err == nil && (r.custom == nil || r.custom.BusinessMetrics.TrackGapSizes) {
		roleAttr := metric.WithAttributes(attribute.String("role", role))
		r.metrics.MatchedSkills.Record(ctx, int64(matched), roleAttr)
		r.metrics.MissingSkills.Record(ctx, int64(missing), roleAttr)
	}
}

// RecordRetrieval records one knowledge-base query.
func (r *Recorder) RecordRetrieval(ctx context.Context, docType string, results int, duration time.Duration) {
	if !r.business() || (r.custom != nil && !r.custom.BusinessMetrics.TrackRetrievals) {
		return
	}
	attrs := metric.WithAttributes(attribute.String("doc_type", docType))
	r.metrics.RetrievalDuration.Record(ctx, duration.Seconds(), attrs)
	r.metrics.RetrievalResults.Record(ctx, int64(results), attrs)
}

// RecordNarrative records one narrative attempt and its token usage.
func (r *Recorder) RecordNarrative(ctx context.Context, status string, duration time.Duration, usage *ai.TokenUsage) {
	if !r.aiOps() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", "narrative"),
		attribute.String("status", status),
	}
	r.metrics.NarrativeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if status == types.NarrativeUnavailable {
		r.metrics.NarrativeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if r.custom == nil || r.custom.AIOperations.TrackDuration {
		r.metrics.NarrativeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if usage != nil && (r.custom == nil || r.custom.AIOperations.TrackTokenUsage) {
		r.recordTokens(ctx, usage)
	}
}

func (r *Recorder) recordTokens(ctx context.Context, usage *ai.TokenUsage) {
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		r.metrics.NarrativeTokens.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", "narrative"),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordIndexBuild records an index build triggered by trigger
// ("request", "watch" or "cli").
func (r *Recorder) RecordIndexBuild(ctx context.Context, trigger string, duration time.Duration, err error) {
	if !r.infra() || (r.custom != nil && !r.custom.Infrastructure.TrackIndexBuilds) {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.Bool("success", err == nil),
	)
	r.metrics.IndexBuilds.Add(ctx, 1, attrs)
	r.metrics.IndexBuildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRateLimitHit records a rejected request.
func (r *Recorder) RecordRateLimitHit(ctx context.Context, clientType string) {
	if !r.infra() || (r.custom != nil && !r.custom.Infrastructure.TrackRateLimits) {
		return
	}
	r.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("client_type", clientType)))
}
