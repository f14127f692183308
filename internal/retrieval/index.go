// Package retrieval indexes the markdown knowledge base and answers
// similarity queries over it.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"skillgap/internal/errors"
	"skillgap/internal/types"
)

// DefaultK is the default number of documents returned by Retrieve.
const DefaultK = 4

// Filter restricts results to documents whose metadata has every listed value.
type Filter map[string]string

// TypeFilter selects documents of one knowledge-base type.
func TypeFilter(docType string) Filter {
	return Filter{types.MetaType: docType}
}

func (f Filter) matches(meta map[string]string) bool {
	for k, v := range f {
		if meta[k] != v {
			return false
		}
	}
	return true
}

// Retriever answers similarity queries over the knowledge base. Callers
// must not run RebuildIndex concurrently with Retrieve.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, filter Filter) ([]types.Document, error)
	EnsureIndex(ctx context.Context) error
	RebuildIndex(ctx context.Context) error
}

// Options configure an Index.
type Options struct {
	Sources      []Source
	Path         string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Workers      int
}

// BuildStats describe the last index build.
type BuildStats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Embedder  string        `json:"embedder"`
	Duration  time.Duration `json:"duration"`
	Loaded    bool          `json:"loaded"`
	BuiltAt   time.Time     `json:"builtAt"`
}

// Index is a persistent vector index over the knowledge base.
type Index struct {
	opts     Options
	embedder Embedder
	splitter *Splitter
	logger   *errors.Logger

	mu     sync.Mutex
	store  *store
	chunks []storedChunk
	ready  bool
	stats  BuildStats
}

// NewIndex creates an index. Nothing is read or built until first use.
func NewIndex(opts Options, embedder Embedder, logger *errors.Logger) *Index {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Index{
		opts:     opts,
		embedder: embedder,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		logger:   logger,
	}
}

// EnsureIndex loads the persisted index, building it if it is missing,
// empty, or was built with a different embedder.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.ensureLocked(ctx)
}

func (ix *Index) ensureLocked(ctx context.Context) error {
	if ix.ready {
		return nil
	}
	if err := ix.openLocked(); err != nil {
		return err
	}

	name, err := ix.store.embedderName(ctx)
	if err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to read index metadata", err)
	}
	n, err := ix.store.count(ctx)
	if err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to read index", err)
	}

	if n > 0 && name == ix.embedder.Name() {
		chunks, err := ix.store.load(ctx)
		if err != nil {
			return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to load index", err)
		}
		ix.chunks = chunks
		ix.ready = true
		ix.stats = BuildStats{Chunks: len(chunks), Embedder: name, Loaded: true}
		ix.logger.Debug("Loaded persisted index", "path", ix.opts.Path, "chunks", len(chunks))
		return nil
	}

	if name != "" && name != ix.embedder.Name() {
		ix.logger.Info("Embedder changed, rebuilding index", "previous", name, "current", ix.embedder.Name())
	}
	return ix.buildLocked(ctx)
}

// RebuildIndex discards the current index and builds it from the sources.
func (ix *Index) RebuildIndex(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.ready = false
	ix.chunks = nil
	if err := ix.openLocked(); err != nil {
		return err
	}
	return ix.buildLocked(ctx)
}

func (ix *Index) openLocked() error {
	if ix.store != nil {
		return nil
	}
	s, err := openStore(ix.opts.Path)
	if err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to open index", err).
			WithContext("path", ix.opts.Path)
	}
	ix.store = s
	return nil
}

func (ix *Index) buildLocked(ctx context.Context) error {
	start := time.Now()

	docs, err := LoadDocuments(ix.opts.Sources)
	if err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to load knowledge base", err)
	}
	pieces := ix.splitter.SplitDocuments(docs)

	vectors, err := ix.embedAll(ctx, pieces)
	if err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to embed knowledge base", err)
	}

	chunks := make([]storedChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = storedChunk{Doc: p, Vector: vectors[i]}
	}
	if err := ix.store.replace(ctx, ix.embedder.Name(), chunks); err != nil {
		return errors.NewRetrievalError(errors.ErrCodeIndexBuildFailed, "failed to persist index", err)
	}

	ix.chunks = chunks
	ix.ready = true
	ix.stats = BuildStats{
		Documents: len(docs),
		Chunks:    len(chunks),
		Embedder:  ix.embedder.Name(),
		Duration:  time.Since(start),
		BuiltAt:   time.Now(),
	}
	ix.logger.Info("Knowledge base indexed",
		"documents", len(docs),
		"chunks", len(chunks),
		"embedder", ix.embedder.Name(),
		"duration", ix.stats.Duration)
	return nil
}

// embedAll embeds chunk contents in batches, running up to Workers batches at once.
func (ix *Index) embedAll(ctx context.Context, docs []types.Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for start := 0; start < len(docs); start += ix.opts.BatchSize {
		end := min(start+ix.opts.BatchSize, len(docs))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Content)
			}
			out, err := ix.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(out), len(texts))
			}
			copy(vectors[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Retrieve returns up to k documents most similar to query that match filter,
// best first. The index is built on first use.
func (ix *Index) Retrieve(ctx context.Context, query string, k int, filter Filter) ([]types.Document, error) {
	if k <= 0 {
		k = DefaultK
	}

	ix.mu.Lock()
	if err := ix.ensureLocked(ctx); err != nil {
		ix.mu.Unlock()
		return nil, err
	}
	chunks := ix.chunks
	ix.mu.Unlock()

	qv, err := ix.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, c := range chunks {
		if filter.matches(c.Doc.Metadata) {
			candidates = append(candidates, scored{idx: i, score: Cosine(qv, c.Vector)})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]types.Document, len(candidates))
	for i, c := range candidates {
		out[i] = chunks[c.idx].Doc
	}
	return out, nil
}

func (ix *Index) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if qe, ok := ix.embedder.(QueryEmbedder); ok {
		v, err := qe.EmbedQuery(ctx, query)
		if err != nil {
			return nil, errors.NewRetrievalError(errors.ErrCodeRetrievalFailed, "failed to embed query", err)
		}
		return v, nil
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.NewRetrievalError(errors.ErrCodeRetrievalFailed, "failed to embed query", err)
	}
	if len(vecs) != 1 {
		return nil, errors.NewRetrievalError(errors.ErrCodeRetrievalFailed, "embedder returned no query vector", nil)
	}
	return vecs[0], nil
}

// Stats returns details of the last build or load.
func (ix *Index) Stats() BuildStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.stats
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.store == nil {
		return nil
	}
	err := ix.store.Close()
	ix.store = nil
	ix.ready = false
	ix.chunks = nil
	return err
}
