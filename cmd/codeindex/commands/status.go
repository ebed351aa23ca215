package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/codeindex/internal/cli/output"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/spf13/cobra"
)

var (
	statusRoot    string
	statusProject string
	statusOutput  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed file/symbol/relation counts for a project",
	Long: `Display the current indexed footprint of a project: how many files,
symbols, and relations the store holds.

Examples:
  codeindex status --root .
  codeindex status --root . --project my-package --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRoot, "root", ".", "Project root")
	statusCmd.Flags().StringVar(&statusProject, "project", "", "Project name within root (default: the first discovered boundary)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(statusRoot)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	s, err := openOneShotSession(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	stats, err := s.Stats(cmd.Context(), statusProject)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, stats)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, stats)
	default:
		printStatusTable(stats)
		return nil
	}
}

func printStatusTable(stats model.FileStats) {
	fmt.Println()
	fmt.Printf("  Files:     %d\n", stats.FileCount)
	fmt.Printf("  Symbols:   %d\n", stats.SymbolCount)
	fmt.Printf("  Relations: %d\n", stats.RelationCount)
	fmt.Println()
}
