package cli

import (
	"context"

	"github.com/spf13/cobra"

	"skillgap/internal/config"
	"skillgap/internal/errors"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "skillgap",
	Short: "Find the skill gaps between a CV and a target role",
	Long: `skillgap compares the skills found in a CV with the skills a target role
needs, using a local knowledge base of role profiles, learning playbooks and
roadmaps. It reports matched and missing skills, a four-week learning roadmap
and, when an AI model is configured, a written gap analysis.`,
	SilenceUsage: true,
}

// Execute runs the CLI with cfg and logger available to every subcommand.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	return errors.NewNopLogger()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
