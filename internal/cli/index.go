package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skillgap/internal/common"
	"skillgap/internal/retrieval"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the knowledge base index",
	Long: `Manage the persistent vector index built from the knowledge base folders
(roles, playbooks and roadmaps under knowledge.dataDir).`,
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Load the index, building it only when missing or stale",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, func(ctx context.Context, ix *retrieval.Index) error {
			return ix.EnsureIndex(ctx)
		})
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Discard the index and rebuild it from the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd, func(ctx context.Context, ix *retrieval.Index) error {
			return ix.RebuildIndex(ctx)
		})
	},
}

func init() {
	indexCmd.AddCommand(indexEnsureCmd)
	indexCmd.AddCommand(indexRebuildCmd)
}

func runIndex(cmd *cobra.Command, op func(context.Context, *retrieval.Index) error) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	comps, err := common.NewComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.LogError(err, "Failed to close index")
		}
	}()

	start := time.Now()
	if err := op(ctx, comps.Index); err != nil {
		return fmt.Errorf("index operation failed: %w", err)
	}

	stats := comps.Index.Stats()
	out := cmd.OutOrStdout()
	action := "Built"
	if stats.Loaded {
		action = "Loaded"
	}
	fmt.Fprintf(out, "%s index at %s\n", action, cfg.Knowledge.IndexPath)
	if !stats.Loaded {
		fmt.Fprintf(out, "  Documents: %d\n", stats.Documents)
	}
	fmt.Fprintf(out, "  Chunks:    %d\n", stats.Chunks)
	fmt.Fprintf(out, "  Embedder:  %s\n", stats.Embedder)
	fmt.Fprintf(out, "  Took:      %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
