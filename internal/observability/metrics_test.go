package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"skillgap/internal/ai"
	"skillgap/internal/config"
	"skillgap/internal/types"
)

func newTestRecorder(t *testing.T, custom *config.CustomMetricsConfig) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}
	return NewRecorder(m, custom), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is %T, not an int64 sum", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecorderRecordsEverythingWithoutConfig(t *testing.T) {
	rec, reader := newTestRecorder(t, nil)
	ctx := context.Background()

	rec.RecordAnalysis(ctx, "Data Engineer", 3, 2, time.Second, nil)
	rec.RecordAnalysis(ctx, "Data Engineer", 0, 0, time.Second, errors.New("boom"))
	rec.RecordRetrieval(ctx, types.DocTypePlaybook, 4, time.Millisecond)
	rec.RecordNarrative(ctx, types.NarrativeUnavailable, time.Second, nil)
	rec.RecordNarrative(ctx, types.NarrativeGenerated, time.Second, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	rec.RecordIndexBuild(ctx, "cli", time.Second, nil)
	rec.RecordRateLimitHit(ctx, "ip")

	got := collect(t, reader)

	for name, want := range map[string]int64{
		"skillgap_analyses_total":           2,
		"skillgap_narrative_requests_total": 2,
		"skillgap_narrative_errors_total":   1,
		"skillgap_index_builds_total":       1,
		"skillgap_rate_limit_hits_total":    1,
	} {
		m, ok := got[name]
		if !ok {
			t.Errorf("metric %s not recorded", name)
			continue
		}
		if total := counterTotal(t, m); total != want {
			t.Errorf("%s = %d, want %d", name, total, want)
		}
	}

	for _, name := range []string{
		"skillgap_matched_skills",
		"skillgap_retrieval_duration_seconds",
		"skillgap_narrative_token_usage",
	} {
		if _, ok := got[name]; !ok {
			t.Errorf("metric %s not recorded", name)
		}
	}
}

func TestRecorderHonoursSwitches(t *testing.T) {
	custom := &config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: false, TrackRateLimits: true},
	}
	rec, reader := newTestRecorder(t, custom)
	ctx := context.Background()

	rec.RecordAnalysis(ctx, "AI Engineer", 1, 1, time.Second, nil)
	rec.RecordRetrieval(ctx, types.DocTypeRole, 1, time.Millisecond)
	rec.RecordNarrative(ctx, types.NarrativeGenerated, time.Second, &ai.TokenUsage{TotalTokens: 1})
	rec.RecordRateLimitHit(ctx, "api_key")

	got := collect(t, reader)

	if _, ok := got["skillgap_analyses_total"]; !ok {
		t.Error("analyses should be recorded when business metrics are enabled")
	}
	for _, name := range []string{
		"skillgap_matched_skills",
		"skillgap_retrieval_duration_seconds",
		"skillgap_narrative_duration_seconds",
		"skillgap_narrative_token_usage",
		"skillgap_rate_limit_hits_total",
	} {
		if _, ok := got[name]; ok {
			t.Errorf("metric %s should be switched off", name)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	ctx := context.Background()
	rec.RecordAnalysis(ctx, "x", 0, 0, 0, nil)
	rec.RecordRetrieval(ctx, "role", 0, 0)
	rec.RecordNarrative(ctx, types.NarrativeSkipped, 0, nil)
	rec.RecordIndexBuild(ctx, "cli", 0, nil)
	rec.RecordRateLimitHit(ctx, "ip")

	disabled, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "skillgap"}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}
	disabled.Recorder().RecordAnalysis(ctx, "x", 1, 1, time.Second, nil)
	if err := disabled.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
