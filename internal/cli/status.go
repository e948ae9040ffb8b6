package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the workspace",
	Long: `Print a summary of the workspace: item counts by type, the current
selection, and any warnings from the last store scan.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		counts, total, err := countItemsByType()
		if err != nil {
			return fmt.Errorf("scanning workspace: %w", err)
		}

		fmt.Printf("Workspace %s (%s)\n\n", Store.Name, Store.BaseDir)

		if total == 0 {
			fmt.Println("  No items.")
		} else {
			for _, t := range models.ItemTypes {
				if counts[t] == 0 {
					continue
				}
				fmt.Printf("  %-14s %d\n", string(t)+"s:", counts[t])
			}
			fmt.Printf("\n  Total: %d item(s)\n", total)
		}

		sel := Store.Selections.Current()
		if !sel.IsEmpty() {
			fmt.Printf("\nSelected (%d):\n", len(sel.Paths))
			for _, p := range sel.Paths {
				fmt.Printf("  %s\n", p)
			}
		}

		if warnings := Store.Warnings(); len(warnings) > 0 {
			fmt.Printf("\nWarnings:\n")
			for _, w := range warnings {
				fmt.Printf("  %s\n", w)
			}
		}

		return nil
	},
}

// countItemsByType walks the live workspace and tallies items per type.
// Unreadable items are counted via store warnings, not here.
func countItemsByType() (map[models.ItemType]int, int, error) {
	counts := make(map[models.ItemType]int)
	total := 0
	err := Store.WalkItems("", func(p models.StorePath) error {
		item, err := Store.Load(p)
		if err != nil {
			return nil
		}
		counts[item.ItemType]++
		total++
		return nil
	})
	return counts, total, err
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
