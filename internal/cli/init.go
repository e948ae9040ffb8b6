package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a trove workspace",
	Long: `Initialize a new or existing directory as a trove workspace, creating
the .trove metadata directory with its archive, settings, cache, and tmp
subtrees plus the store version file.

Safe to run on an existing workspace -- metadata that already exists is
left untouched. Initializing a store written by a newer trove version
prints a warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		dirs := storage.NewDirs(absPath)
		already := dirs.IsInitialized()

		warning, err := dirs.Initialize()
		if err != nil {
			return fmt.Errorf("initializing workspace: %w", err)
		}
		if warning != "" {
			fmt.Printf("Warning: %s\n", warning)
		}

		if already {
			fmt.Printf("Workspace at %s is already initialized.\n", absPath)
		} else {
			fmt.Printf("Initialized workspace at %s\n", absPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
