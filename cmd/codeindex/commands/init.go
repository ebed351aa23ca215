package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/codeindex/internal/cli/prompt"
	"github.com/marmos91/codeindex/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initRoot  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample codeindex configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/codeindex/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location, indexing the current directory
  codeindex init

  # Initialize with a custom root
  codeindex init --root /path/to/project

  # Force overwrite an existing config file
  codeindex init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().StringVar(&initRoot, "root", ".", "Project root to index")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Overwrite existing configuration at %s?", configPath), initForce)
		if err != nil {
			if err == prompt.ErrAborted {
				return nil
			}
			return err
		}
		if !ok {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	root, err := filepath.Abs(initRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	cfg := config.GetDefaultConfig()
	cfg.Project.Root = root

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize extensions and ignore patterns")
	fmt.Println("  2. Run an initial index: codeindex index")
	fmt.Printf("  3. Or specify a custom config: codeindex index --config %s\n", configPath)

	return nil
}
