package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

var (
	importType     string
	importReimport bool
)

var importCmd = &cobra.Command{
	Use:   "import <path-or-url>...",
	Short: "Import external files or URLs into the workspace",
	Long: `Import one or more external files or URLs as workspace items.

Text files are re-read with frontmatter parsing; binary files are copied
preserving their filename; URLs become resource items pointing at the
canonicalized URL. An already-imported locator resolves to its existing
item unless --reimport is given.

The imported items become the current selection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		asType, ok := models.ParseItemType(importType)
		if !ok {
			return fmt.Errorf("unknown item type %q (one of: %s)", importType, itemTypeNames())
		}

		paths, err := Store.ImportAll(args, asType, importReimport)
		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		if err := Store.Selections.Push(selectionOf(paths)); err != nil {
			return fmt.Errorf("updating selection: %w", err)
		}

		fmt.Printf("Imported %d item(s):\n", len(paths))
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importType, "type", string(models.TypeResource), "Item type to import as")
	importCmd.Flags().BoolVar(&importReimport, "reimport", false, "Re-import even if the locator already has an item")
	_ = importCmd.RegisterFlagCompletionFunc("type", completeItemTypes)
	rootCmd.AddCommand(importCmd)
}
