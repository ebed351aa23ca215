package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/codeindex/internal/cli/output"
	"github.com/marmos91/codeindex/pkg/index/model"
	"github.com/spf13/cobra"
)

var (
	indexRoot   string
	indexOutput string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run a one-shot full index of a project tree",
	Long: `Scan a project tree, parse every matching source file, and persist
the resulting symbols, relations, and dependency graph.

This runs in one-shot mode: no watcher, heartbeat, or ownership
arbitration. For continuous indexing, embed pkg/index/session in a
long-running process with watch mode enabled.

Examples:
  # Index the current directory
  codeindex index --root .

  # Index a project and print the result as JSON
  codeindex index --root /path/to/project --output json`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexRoot, "root", ".", "Project root to index")
	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(indexRoot)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	format, err := output.ParseFormat(indexOutput)
	if err != nil {
		return err
	}

	s, err := openOneShotSession(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	result, err := s.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, result)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, result)
	default:
		printIndexResultTable(result)
		return nil
	}
}

func printIndexResultTable(result *model.IndexResult) {
	fmt.Println()
	fmt.Printf("  Indexed files:   %d\n", result.IndexedFiles)
	fmt.Printf("  Removed files:   %d\n", result.RemovedFiles)
	fmt.Printf("  Total symbols:   %d\n", result.TotalSymbols)
	fmt.Printf("  Total relations: %d\n", result.TotalRelations)
	fmt.Printf("  Duration:        %dms\n", result.DurationMs)
	if len(result.FailedFiles) > 0 {
		fmt.Printf("  Failed files:    %v\n", result.FailedFiles)
	}
	fmt.Println()
}
