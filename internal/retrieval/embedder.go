package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"google.golang.org/genai"

	"skillgap/internal/errors"
)

// Embedder turns texts into fixed-length vectors. Name identifies the
// vector space; an index built with one name is not reused by another.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryEmbedder is implemented by embedders that encode search queries
// differently from the documents they are matched against.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Gemini embedding task types.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// DefaultHashDimensions is the hash embedder's vector length.
const DefaultHashDimensions = 4096

// HashEmbedder counts lower-cased word unigrams and bigrams in a fixed
// number of buckets. It needs no network access. Counts are never negative,
// so a shared token always gives a positive similarity.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns a hash embedder with the given dimensionality.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", h.dims)
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	words := tokenize(text)
	for i, w := range words {
		h.add(v, w)
		if i > 0 {
			h.add(v, words[i-1]+" "+w)
		}
	}
	normalize(v)
	return v
}

func (h *HashEmbedder) add(v []float32, token string) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(token))
	v[f.Sum64()%uint64(h.dims)]++
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// Cosine returns the cosine similarity of two equal-length vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// geminiBatchLimit is the most texts sent in one embedding request.
const geminiBatchLimit = 100

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Missing Gemini API key for embeddings", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "failed to create Gemini client", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: int32(dimensions)}, nil
}

func (g *GeminiEmbedder) Name() string {
	return fmt.Sprintf("gemini:%s:%d", g.model, g.dimensions)
}

// Embed encodes knowledge-base chunks.
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return g.embed(ctx, texts, taskRetrievalDocument)
}

// EmbedQuery encodes a search query.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	out, err := g.embed(ctx, []string{query}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (g *GeminiEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		batch := texts[start:min(start+geminiBatchLimit, len(texts))]

		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		}

		cfg := &genai.EmbedContentConfig{TaskType: taskType}
		if g.dimensions > 0 {
			cfg.OutputDimensionality = &g.dimensions
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, cfg)
		if err != nil {
			return nil, errors.NewRetrievalError(errors.ErrCodeEmbeddingFailed, "Gemini embedding request failed", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, errors.NewRetrievalError(errors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("expected %d embeddings, got %d", len(batch), len(resp.Embeddings)), nil)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}
