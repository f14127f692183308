package server

import (
	"net/http"

	"skillgap/internal/analysis"
	"skillgap/internal/observability"
	"skillgap/internal/skills"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	rec := om.Recorder()
	s.analyzer = analysis.New(analysis.Options{
		Catalog:   s.Catalog,
		Skills:    skills.Default(),
		RolesDir:  s.rolesDir(),
		Retriever: s.Index,
		Narrator:  s.Narrator,
		K:         s.retrievalK(),
		Recorder:  rec,
		Logger:    s.Logger,
	})

	mux := http.NewServeMux()

	rateLimited := s.rateLimitMiddleware(rec)
	sizeLimited := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimited(s.authMiddleware(sizeLimited(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("GET /roles", s.rolesHandler)
	mux.HandleFunc("POST /analyze", protected(s.createAnalyzeHandler(om)))
	mux.HandleFunc("POST /index/rebuild", protected(s.createRebuildHandler(om)))

	return mux
}

func (s *Server) rolesDir() string {
	if s.AppConfig == nil {
		return ""
	}
	return s.AppConfig.Knowledge.RolesPath()
}

func (s *Server) retrievalK() int {
	if s.AppConfig == nil {
		return 0
	}
	return s.AppConfig.Knowledge.RetrievalK
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
