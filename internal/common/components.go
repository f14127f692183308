package common

import (
	"context"
	"fmt"

	"skillgap/internal/ai"
	"skillgap/internal/analysis"
	"skillgap/internal/config"
	"skillgap/internal/errors"
	"skillgap/internal/retrieval"
	"skillgap/internal/roles"
	"skillgap/internal/skills"
	"skillgap/internal/types"
)

// Components are the long-lived pieces shared by every analysis of one
// process: the knowledge-base index and the narrative service.
type Components struct {
	Config   *config.Config
	Index    *retrieval.Index
	Sources  []retrieval.Source
	Narrator ai.Narrator
	Catalog  *roles.Catalog

	logger *errors.Logger
}

// NewComponents wires the index and narrator from configuration. Nothing
// is read from disk or the network until first use.
func NewComponents(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*Components, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sources := KnowledgeSources(cfg.Knowledge)
	index := retrieval.NewIndex(retrieval.Options{
		Sources:      sources,
		Path:         cfg.Knowledge.IndexPath,
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
		Workers:      cfg.Knowledge.Workers,
	}, embedder, logger)

	narrativeConfig := cfg.GetNarrativeConfig()
	narrator, err := ai.NewService(&narrativeConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrative service: %w", err)
	}

	return &Components{
		Config:   cfg,
		Index:    index,
		Sources:  sources,
		Narrator: narrator,
		Catalog:  roles.Default(),
		logger:   logger,
	}, nil
}

// KnowledgeSources returns the knowledge-base folders, honouring a custom
// roles folder.
func KnowledgeSources(k config.KnowledgeConfig) []retrieval.Source {
	sources := retrieval.DefaultSources(k.DataDir)
	for i := range sources {
		if sources[i].Type == types.DocTypeRole {
			sources[i].Dir = k.RolesPath()
		}
	}
	return sources
}

// NewEmbedder returns the embedder named by knowledge.embedder.
func NewEmbedder(ctx context.Context, cfg *config.Config) (retrieval.Embedder, error) {
	switch cfg.Knowledge.Embedder {
	case config.EmbedderGemini:
		emb := cfg.GetEmbeddingConfig()
		return retrieval.NewGeminiEmbedder(ctx, emb.APIKey, emb.Model, int(emb.Dimensions))
	case config.EmbedderHash, "":
		return retrieval.NewHashEmbedder(cfg.Knowledge.HashDimensions), nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
		fmt.Sprintf("Unsupported embedder: %s", cfg.Knowledge.Embedder), nil)
}

// Analyzer returns an analyzer over these components. rec may be nil.
func (c *Components) Analyzer(rec analysis.Recorder) *analysis.Analyzer {
	opts := analysis.Options{
		Catalog:   c.Catalog,
		Skills:    skills.Default(),
		RolesDir:  c.Config.Knowledge.RolesPath(),
		Retriever: c.Index,
		Narrator:  c.Narrator,
		K:         c.Config.Knowledge.RetrievalK,
		Logger:    c.logger,
	}
	if rec != nil {
		opts.Recorder = rec
	}
	return analysis.New(opts)
}

// Close releases the index database and the narrator.
func (c *Components) Close() error {
	indexErr := c.Index.Close()
	narratorErr := c.Narrator.Close()
	if indexErr != nil {
		return indexErr
	}
	return narratorErr
}
