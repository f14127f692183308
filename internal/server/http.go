package server

import (
	"sync"
	"time"

	"skillgap/internal/ai"
	"skillgap/internal/analysis"
	"skillgap/internal/config"
	"skillgap/internal/errors"
	"skillgap/internal/retrieval"
	"skillgap/internal/roles"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// KnowledgeIndex is the retrieval index analyses run against.
type KnowledgeIndex interface {
	retrieval.Retriever
	Stats() retrieval.BuildStats
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Analysis dependencies
	Index    KnowledgeIndex
	Narrator ai.Narrator
	Catalog  *roles.Catalog
	Sources  []retrieval.Source

	Logger *errors.Logger

	// indexMu lets analyses run together but never alongside a rebuild.
	indexMu  sync.RWMutex
	analyzer *analysis.Analyzer
	watcher  *retrieval.Watcher
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig

	Index    KnowledgeIndex
	Narrator ai.Narrator
	Catalog  *roles.Catalog
	Sources  []retrieval.Source
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = roles.Default()
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Index:          cfg.Index,
		Narrator:       cfg.Narrator,
		Catalog:        catalog,
		Sources:        cfg.Sources,
		Logger:         logger,
	}
}
