package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"layerweave/internal/compose"
	"layerweave/internal/config"
	"layerweave/internal/logging"
	"layerweave/internal/report"
)

var (
	reportPath string
	jobsFlag   int
)

// composeCmd runs one full two-phase composition
var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose all entities and resolve directives",
	Long: `Runs one full composition: Phase 1 merges every entity's layer
chain (core, then active packs in activation order, then project) into an
intermediate document, and Phase 2 resolves the template directives
against the composed corpus.

The exit code is non-zero iff the run report contains errors. The output
directory is provisional until the run reports success.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVar(&reportPath, "report", "", "write the JSON run report to this file")
	composeCmd.Flags().IntVar(&jobsFlag, "jobs", 0, "max parallel workers per phase (0 = GOMAXPROCS)")
}

func runCompose(cmd *cobra.Command, args []string) error {
	rep, err := composeOnce(cmd)
	if rep != nil {
		printSummary(rep)
		if werr := writeReport(rep); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if rep.HasErrors() {
		return fmt.Errorf("composition finished with %d error(s)", len(rep.Errors()))
	}
	return nil
}

// composeOnce performs a single run; shared by compose and watch.
func composeOnce(cmd *cobra.Command) (*report.Report, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	if err := logging.Initialize(root); err != nil {
		logger.Warn("debug logging unavailable", zap.Error(err))
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if jobsFlag > 0 {
		cfg.Jobs = jobsFlag
	}

	ctx := config.NewContext(cfg, root, version)

	logger.Info("starting composition",
		zap.String("root", root),
		zap.Strings("packs", ctx.ActivePacks),
		zap.Strings("categories", cfg.Categories),
	)

	runner := compose.NewRunner(cfg, ctx, compose.AtomicWriter{})
	rep, err := runner.Run(cmd.Context())
	if err != nil {
		logger.Error("composition aborted", zap.Error(err))
		return rep, err
	}
	return rep, nil
}

func printSummary(rep *report.Report) {
	s := rep.Summary()
	fmt.Printf("Files written:      %d\n", len(s.FilesWritten))
	fmt.Printf("Variables resolved: %d\n", len(s.VariablesResolved))
	fmt.Printf("Variables missing:  %d\n", len(s.VariablesMissing))
	fmt.Printf("Sections extracted: %d\n", len(s.SectionsExtracted))
	for _, w := range s.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range s.Errors {
		fmt.Printf("error: %s\n", e)
	}
}

func writeReport(rep *report.Report) error {
	if reportPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(rep.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(reportPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
