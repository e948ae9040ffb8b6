package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

var showCmd = &cobra.Command{
	Use:   "show [path]...",
	Short: "Show item metadata and content",
	Long: `Show the metadata and body of one or more items. With no arguments
the current selection is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		paths := make([]models.StorePath, 0, len(args))
		if len(args) == 0 {
			sel := Store.Selections.Current()
			if sel.IsEmpty() {
				return fmt.Errorf("nothing selected; give a path or select items first")
			}
			paths = sel.Paths
		} else {
			for _, arg := range args {
				p, ok := Store.ResolvePath(arg)
				if !ok {
					return fmt.Errorf("no item at %q", arg)
				}
				paths = append(paths, p)
			}
		}

		for i, p := range paths {
			if i > 0 {
				fmt.Println()
			}
			item, err := Store.Load(p)
			if err != nil {
				return fmt.Errorf("loading %s: %w", p, err)
			}
			printItem(item)
		}
		return nil
	},
	ValidArgsFunction: completeStorePaths,
}

func printItem(item models.Item) {
	fmt.Printf("%s\n", item.StorePath)
	fmt.Printf("  %-12s %s\n", "type:", item.ItemType)
	fmt.Printf("  %-12s %s\n", "format:", item.Format)
	if item.Title != "" {
		fmt.Printf("  %-12s %s\n", "title:", item.Title)
	}
	if item.URL != "" {
		fmt.Printf("  %-12s %s\n", "url:", item.URL)
	}
	if item.Description != "" {
		fmt.Printf("  %-12s %s\n", "description:", item.Description)
	}
	if item.State != "" && item.State != models.StateNormal {
		fmt.Printf("  %-12s %s\n", "state:", item.State)
	}
	if !item.ModifiedAt.IsZero() {
		fmt.Printf("  %-12s %s\n", "modified:", item.ModifiedAt.Format(time.RFC3339))
	}
	if len(item.Relations.DerivedFrom) > 0 {
		fmt.Printf("  %-12s\n", "derived from:")
		for _, p := range item.Relations.DerivedFrom {
			fmt.Printf("    %s\n", p)
		}
	}
	if len(item.History) > 0 {
		fmt.Printf("  %-12s\n", "history:")
		for _, src := range item.History {
			fmt.Printf("    %s\n", src)
		}
	}
	if item.Body != "" {
		fmt.Printf("\n%s", item.Body)
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
}
