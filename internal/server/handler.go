package server

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"skillgap/internal/analysis"
	"skillgap/internal/errors"
	"skillgap/internal/formatters"
	"skillgap/internal/observability"
	"skillgap/internal/retrieval"
	"skillgap/internal/roles"
)

// Index build triggers reported to metrics.
const (
	triggerRequest = "request"
	triggerWatch   = "watch"
	triggerStartup = "startup"
)

var reportFormatters = formatters.NewFormatterRegistry()

// createAnalyzeHandler runs one analysis. The report is JSON unless the
// format query parameter asks for text or markdown.
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("skillgap.api").Start(r.Context(), "api.analyze")
		defer span.End()

		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		if format == "" {
			format = "json"
		}
		if !isSupportedFormat(format) {
			writeErrorResponse(w, "Unsupported format", errors.ErrCodeInvalidFormat,
				"format must be one of: "+strings.Join(reportFormatters.GetSupportedFormats(), ", "), http.StatusBadRequest)
			return
		}

		req := analysis.NewRequest()
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		if s.Index == nil {
			writeErrorResponse(w, "Knowledge base unavailable", errors.ErrCodeIndexBuildFailed,
				"no knowledge base index is configured", http.StatusServiceUnavailable)
			return
		}

		span.SetAttributes(
			attribute.Int("request.cv_text_length", len(req.CVText)),
			attribute.Int("request.cv_content_length", len(req.CVContent)),
			attribute.Bool("request.use_job_description", req.UseJobDescription),
			attribute.Bool("request.use_llm", req.UseLLM),
		)

		s.indexMu.RLock()
		report, err := s.analyzer.Analyze(ctx, req)
		s.indexMu.RUnlock()
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Analysis failed", err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("report.id", report.ID),
			attribute.String("report.narrative_status", report.NarrativeStatus),
		)

		if format == "json" {
			writeJSON(w, http.StatusOK, report)
			return
		}
		body, err := reportFormatters.Format(report, format)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to format report", errors.ErrCodeInvalidFormat, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeFor(format))
		if _, err := w.Write([]byte(body)); err != nil {
			s.Logger.LogError(err, "Failed to write report")
		}
	}
}

// createRebuildHandler discards the index and rebuilds it from the
// knowledge-base folders.
func (s *Server) createRebuildHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("skillgap.api").Start(r.Context(), "api.index_rebuild")
		defer span.End()

		if s.Index == nil {
			writeErrorResponse(w, "Knowledge base unavailable", errors.ErrCodeIndexBuildFailed,
				"no knowledge base index is configured", http.StatusServiceUnavailable)
			return
		}

		stats, err := s.rebuildIndex(ctx, om.Recorder(), triggerRequest)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Index rebuild failed", err)
			return
		}
		span.SetAttributes(attribute.Int("index.chunks", stats.Chunks))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "rebuilt",
			"index":  stats,
		})
	}
}

// rebuildIndex waits for running analyses to finish, then rebuilds.
func (s *Server) rebuildIndex(ctx context.Context, rec *observability.Recorder, trigger string) (retrieval.BuildStats, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	start := time.Now()
	err := s.Index.RebuildIndex(ctx)
	rec.RecordIndexBuild(ctx, trigger, time.Since(start), err)
	if err != nil {
		s.Logger.LogError(err, "Index rebuild failed", "trigger", trigger)
		return retrieval.BuildStats{}, err
	}
	stats := s.Index.Stats()
	s.Logger.Info("Index rebuilt",
		"trigger", trigger,
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"duration", stats.Duration.String())
	return stats, nil
}

// ensureIndex loads or builds the index before the first request.
func (s *Server) ensureIndex(ctx context.Context, rec *observability.Recorder) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	start := time.Now()
	err := s.Index.EnsureIndex(ctx)
	if !s.Index.Stats().Loaded {
		rec.RecordIndexBuild(ctx, triggerStartup, time.Since(start), err)
	}
	return err
}

// rolesHandler lists the canonical roles a client can offer.
func (s *Server) rolesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"placeholder": roles.Placeholder,
		"roles":       s.Catalog.Known(),
	})
}

func isSupportedFormat(format string) bool {
	return slices.Contains(reportFormatters.GetSupportedFormats(), format)
}

func contentTypeFor(format string) string {
	switch format {
	case "markdown":
		return "text/markdown; charset=utf-8"
	case "text":
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// writeAppError maps validation failures to 400 and everything else to 500.
func writeAppError(w http.ResponseWriter, title string, err error) {
	status := http.StatusInternalServerError
	code := ""
	message := err.Error()
	if appErr, ok := errors.As(err); ok {
		code = appErr.Code
		if appErr.Type == errors.ErrorTypeValidation {
			status = http.StatusBadRequest
			message = appErr.Message
		}
	}
	writeErrorResponse(w, title, code, message, status)
}
