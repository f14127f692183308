package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skillgap/internal/ai"
	"skillgap/internal/analysis"
	"skillgap/internal/common"
	"skillgap/internal/errors"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [cv-file]",
	Short: "Analyze a CV against a target role",
	Long: `Analyze a CV (PDF, DOCX or plain text) against a target role.

The role scope file of the matched role declares the skills the role needs;
when it declares none they are taken from the knowledge base. Missing skills
are turned into a four-week roadmap using the learning playbooks, and an AI
model writes a gap analysis unless --no-llm is given.

Examples:
  skillgap analyze cv.pdf --role "Data Engineer"
  skillgap analyze cv.docx --custom-role "Analytics Engineer" --jd job.txt --format markdown
  skillgap analyze --cv-text "Python, SQL, Airflow" --role "ML Engineer" --no-llm`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		analyzeConfig.OutputFormat = common.NormalizeFormat(analyzeConfig.OutputFormat)
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

// analyzeFlags are the request-shaping flags of the analyze command.
type analyzeFlags struct {
	role         string
	customRole   string
	jdFile       string
	cvText       string
	noLLM        bool
	style        string
	sourcesOnly  bool
	instructions string
}

var (
	analyzeConfig common.CommandConfig
	analyzeOpts   analyzeFlags
)

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.role, "role", "", "Target role (one of the known roles, see 'skillgap roles list')")
	f.StringVar(&analyzeOpts.customRole, "custom-role", "", "Free-form target role; overrides --role")
	f.StringVar(&analyzeOpts.jdFile, "jd", "", "Job description file to use as extra context")
	f.StringVar(&analyzeOpts.cvText, "cv-text", "", "CV as plain text instead of a file")
	f.BoolVar(&analyzeOpts.noLLM, "no-llm", false, "Skip the AI-written gap analysis")
	f.StringVar(&analyzeOpts.style, "style", "professional", "Narrative style: professional, concise, detailed or recruiter")
	f.BoolVar(&analyzeOpts.sourcesOnly, "sources-only", true, "Ground the narrative in the knowledge base only")
	f.StringVar(&analyzeOpts.instructions, "instructions", "", "Extra instructions for the narrative")
	f.StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return getConfigFromContext(cmd.Context()).App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = analyzeCmd.RegisterFlagCompletionFunc("role", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return knownRoles(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = analyzeCmd.RegisterFlagCompletionFunc("style", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"professional", "concise", "detailed", "recruiter"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	req, err := buildAnalysisRequest(analyzeOpts)
	if err != nil {
		return err
	}

	var cvFile string
	if len(args) == 1 {
		cvFile = args[0]
	}

	comps, err := common.NewComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			logger.LogError(err, "Failed to release resources")
		}
	}()

	runCfg := analyzeConfig
	runCfg.MaxFileSize = cfg.App.MaxFileSize

	analyzer := comps.Analyzer(nil)
	if err := common.RunAnalysisCommand(ctx, logger, runCfg, cvFile, req, analyzer.Analyze); err != nil {
		return fmt.Errorf("failed to analyze CV: %w", err)
	}
	return nil
}

// buildAnalysisRequest turns flags into a request. The CV itself is added
// later from the positional argument.
func buildAnalysisRequest(f analyzeFlags) (analysis.Request, error) {
	req := analysis.NewRequest()
	req.Role = f.role
	req.CustomRole = f.customRole
	req.CVText = f.cvText
	req.UseLLM = !f.noLLM
	req.SourcesOnly = f.sourcesOnly
	req.CustomInstructions = f.instructions

	style, err := resolveStyle(f.style)
	if err != nil {
		return req, err
	}
	req.OutputStyle = style

	if f.jdFile != "" {
		jd, err := os.ReadFile(f.jdFile)
		if err != nil {
			return req, errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Cannot read job description file: %s", f.jdFile), err)
		}
		req.UseJobDescription = true
		req.JobDescription = string(jd)
	}
	return req, nil
}

// resolveStyle accepts a style by its full name or by its first word,
// case-insensitively. Empty means the default style.
func resolveStyle(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ai.StyleProfessional, nil
	}
	for _, style := range ai.Styles {
		full := strings.ToLower(style)
		if s == full || strings.HasPrefix(full, s) {
			return style, nil
		}
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown style %q (use professional, concise, detailed or recruiter)", s), nil)
}
