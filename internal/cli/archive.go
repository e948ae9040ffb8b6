package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <path>...",
	Short: "Move items to the archive",
	Long: `Move items out of the live workspace into .trove/archive. Archived
items keep their relative path and can be restored with unarchive.
Archived paths are removed from the selection history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		for _, arg := range args {
			p, ok := Store.ResolvePath(arg)
			if !ok {
				return fmt.Errorf("no item at %q", arg)
			}
			archived, err := Store.Archive(p, false)
			if err != nil {
				return fmt.Errorf("archiving %s: %w", p, err)
			}
			fmt.Printf("Archived %s -> %s\n", p, archived)
		}
		return nil
	},
	ValidArgsFunction: completeStorePaths,
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <path>...",
	Short: "Restore items from the archive",
	Long: `Restore previously archived items to their live location. Accepts
either the archived path or the original live path.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		for _, arg := range args {
			p, ok := Store.ResolvePath(arg)
			if !ok {
				return fmt.Errorf("no item at %q", arg)
			}
			restored, err := Store.Unarchive(p)
			if err != nil {
				return fmt.Errorf("unarchiving %s: %w", p, err)
			}
			fmt.Printf("Restored %s\n", restored)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
}
