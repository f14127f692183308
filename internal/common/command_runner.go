package common

import (
	"context"
	"path/filepath"
	"strings"

	"skillgap/internal/analysis"
	"skillgap/internal/errors"
	"skillgap/internal/types"
	"skillgap/internal/utils"
)

// AnalyzeFunc runs one analysis.
type AnalyzeFunc func(context.Context, analysis.Request) (*types.GapReport, error)

// RunAnalysisCommand loads the CV file (when one is given) into req, runs
// analyze and writes the formatted report. Text files become CV text;
// anything else is passed on as an upload for extraction.
func RunAnalysisCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	cvFile string,
	req analysis.Request,
	analyze AnalyzeFunc,
) error {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	// Fail on a bad output path before spending time on the analysis.
	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	if cvFile != "" {
		content, err := fileProcessor.ReadFile(cvFile, cmdConfig.MaxFileSize)
		if err != nil {
			return err
		}
		if utils.ClassifyInput(cvFile) == utils.KindText {
			if strings.TrimSpace(req.CVText) == "" {
				req.CVText = string(content)
			}
		} else {
			req.CVFileName = filepath.Base(cvFile)
			req.CVContent = content
		}
	}

	logger.Info("Running skill gap analysis",
		"cv_file", cvFile,
		"role", req.TargetRole(),
		"use_llm", req.UseLLM,
		"use_job_description", req.UseJobDescription,
		"style", req.OutputStyle)

	report, err := analyze(ctx, req)
	if err != nil {
		return err
	}

	logger.Info("Analysis complete",
		"report_id", report.ID,
		"canonical_role", report.CanonicalRole,
		"matched", len(report.Matched),
		"missing", len(report.Missing),
		"narrative_status", report.NarrativeStatus)

	return outputHandler.HandleOutput(report, cmdConfig)
}
