package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/codeindex/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var (
	resetRoot  string
	resetForce bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a project's indexed data",
	Long: `Delete the on-disk store at <root>/.codeindex/db, discarding every
indexed file, symbol, and relation for the project. The next index run
starts from a clean store.

Examples:
  codeindex reset --root .
  codeindex reset --root . --force`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetRoot, "root", ".", "Project root to reset")
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(resetRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}
	dbPath := filepath.Join(root, ".codeindex", "db")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Printf("No indexed data found at %s\n", dbPath)
		return nil
	}

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete indexed data at %s?", dbPath), resetForce)
	if err != nil {
		if err == prompt.ErrAborted {
			return nil
		}
		return err
	}
	if !ok {
		fmt.Println("Aborted")
		return nil
	}

	if err := os.RemoveAll(dbPath); err != nil {
		return fmt.Errorf("failed to remove indexed data: %w", err)
	}

	fmt.Printf("Removed indexed data at %s\n", dbPath)
	return nil
}
