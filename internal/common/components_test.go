package common

import (
	"context"
	"path/filepath"
	"testing"

	"skillgap/internal/config"
	"skillgap/internal/errors"
	"skillgap/internal/retrieval"
	"skillgap/internal/types"
)

func TestKnowledgeSources(t *testing.T) {
	sources := KnowledgeSources(config.KnowledgeConfig{DataDir: "kb"})
	want := map[string]string{
		types.DocTypeRole:     filepath.Join("kb", "roles"),
		types.DocTypePlaybook: filepath.Join("kb", "playbooks"),
		types.DocTypeRoadmap:  filepath.Join("kb", "roadmaps"),
	}
	if len(sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(sources))
	}
	for _, s := range sources {
		if want[s.Type] != s.Dir {
			t.Errorf("%s source dir = %q, want %q", s.Type, s.Dir, want[s.Type])
		}
	}

	custom := KnowledgeSources(config.KnowledgeConfig{DataDir: "kb", RolesDir: "/etc/roles"})
	for _, s := range custom {
		if s.Type == types.DocTypeRole && s.Dir != "/etc/roles" {
			t.Errorf("custom roles dir ignored: %q", s.Dir)
		}
	}
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{Knowledge: config.KnowledgeConfig{Embedder: config.EmbedderHash, HashDimensions: 64}}
	emb, err := NewEmbedder(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := emb.(*retrieval.HashEmbedder); !ok {
		t.Errorf("expected hash embedder, got %T", emb)
	}

	cfg.Knowledge.Embedder = config.EmbedderGemini
	if _, err := NewEmbedder(ctx, cfg); !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("expected config error without an API key, got %v", err)
	}

	cfg.Knowledge.Embedder = "word2vec"
	if _, err := NewEmbedder(ctx, cfg); !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("expected config error for unknown embedder, got %v", err)
	}
}
