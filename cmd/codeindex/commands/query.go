package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/codeindex/internal/cli/output"
	"github.com/marmos91/codeindex/pkg/index/session"
	"github.com/spf13/cobra"
)

var (
	queryRoot      string
	queryProject   string
	queryOutput    string
	queryMaxCycles int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the dependency graph of an indexed project",
	Long: `Run a single query against a project's dependency graph. The
command opens a one-shot session, which runs a full indexing pass before
the query, so every query reflects the current tree.

Examples:
  codeindex query deps --root . src/app.ts
  codeindex query dependents --root . src/util.ts
  codeindex query transitive --root . src/app.ts
  codeindex query affected --root . src/util.ts src/other.ts
  codeindex query has-cycle --root .
  codeindex query cycles --root . --max-cycles 5`,
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryRoot, "root", ".", "Project root to query")
	queryCmd.PersistentFlags().StringVar(&queryProject, "project", "", "Project name within root (default: the first discovered boundary)")
	queryCmd.PersistentFlags().StringVarP(&queryOutput, "output", "o", "table", "Output format (table|json|yaml)")

	queryCmd.AddCommand(queryDepsCmd)
	queryCmd.AddCommand(queryDependentsCmd)
	queryCmd.AddCommand(queryTransitiveCmd)
	queryCmd.AddCommand(queryAffectedCmd)
	queryCmd.AddCommand(queryHasCycleCmd)
	queryCmd.AddCommand(queryCyclesCmd)

	queryCyclesCmd.Flags().IntVar(&queryMaxCycles, "max-cycles", 0, "Maximum number of cycles to return (0 = unbounded)")
}

var queryDepsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List a file's direct dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.GetDependencies(ctx, queryProject, args[0])
	}),
}

var queryDependentsCmd = &cobra.Command{
	Use:   "dependents <file>",
	Short: "List a file's direct dependents",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.GetDependents(ctx, queryProject, args[0])
	}),
}

var queryTransitiveCmd = &cobra.Command{
	Use:   "transitive <file>",
	Short: "List every file transitively depended on by a file",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.GetTransitiveDependencies(ctx, queryProject, args[0])
	}),
}

var queryAffectedCmd = &cobra.Command{
	Use:   "affected <file>...",
	Short: "List every file transitively affected by changes to the given files",
	Args:  cobra.MinimumNArgs(1),
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.GetAffectedByChange(ctx, queryProject, args)
	}),
}

var queryHasCycleCmd = &cobra.Command{
	Use:   "has-cycle",
	Short: "Report whether the dependency graph has any cycle",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.HasCycle(ctx, queryProject)
	}),
}

var queryCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List every elementary cycle in the dependency graph",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session.Session, args []string) (any, error) {
		return s.GetCyclePaths(ctx, queryProject, queryMaxCycles)
	}),
}

// withSession opens a one-shot session, runs fn, prints the result in the
// requested format, and closes the session.
func withSession(fn func(ctx context.Context, s *session.Session, args []string) (any, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(queryRoot)
		if err != nil {
			return err
		}
		if err := initLogger(cfg); err != nil {
			return err
		}

		format, err := output.ParseFormat(queryOutput)
		if err != nil {
			return err
		}

		s, err := openOneShotSession(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		result, err := fn(cmd.Context(), s, args)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		switch format {
		case output.FormatJSON:
			return output.PrintJSON(os.Stdout, result)
		case output.FormatYAML:
			return output.PrintYAML(os.Stdout, result)
		default:
			printQueryResultTable(result)
			return nil
		}
	}
}

func printQueryResultTable(result any) {
	switch v := result.(type) {
	case bool:
		fmt.Println(v)
	case []string:
		if len(v) == 0 {
			fmt.Println("(none)")
			return
		}
		fmt.Println(strings.Join(v, "\n"))
	case [][]string:
		if len(v) == 0 {
			fmt.Println("(none)")
			return
		}
		for _, cycle := range v {
			fmt.Println(strings.Join(cycle, " -> "))
		}
	default:
		fmt.Println(v)
	}
}
