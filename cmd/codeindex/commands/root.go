// Package commands implements the codeindex CLI: a cobra root command with
// a persistent --config flag and one subcommand per file.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "codeindex",
	Short: "Incremental dependency index for TypeScript-family source trees",
	Long: `codeindex builds and maintains a persistent, incremental index of a
TypeScript-family source tree: symbols, imports, and the dependency graph
between files. Each command opens a one-shot session that indexes the tree
once; continuous watching is available by embedding pkg/index/session.

Use "codeindex [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; subcommands are added to it in init.
// Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/codeindex/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

// GetConfigFile returns the config file path from the persistent flag.
func GetConfigFile() string {
	return cfgFile
}

// Exit prints an error to stderr and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
