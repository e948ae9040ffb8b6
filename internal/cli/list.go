package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

var listType string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items in the workspace",
	Long: `List all items in the workspace as a table with columns:
path, type, format, and title. Optionally filter by item type.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		var filter models.ItemType
		if listType != "" {
			t, ok := models.ParseItemType(listType)
			if !ok {
				return fmt.Errorf("unknown item type %q (one of: %s)", listType, itemTypeNames())
			}
			filter = t
		}

		var items []models.Item
		err := Store.WalkItems("", func(p models.StorePath) error {
			item, err := Store.Load(p)
			if err != nil {
				return nil // unreadable items are reported via Warnings
			}
			if filter != "" && item.ItemType != filter {
				return nil
			}
			items = append(items, item)
			return nil
		})
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}

		fmt.Printf("  %-44s %-10s %-10s %s\n", "PATH", "TYPE", "FORMAT", "TITLE")
		for _, item := range items {
			fmt.Printf("  %-44s %-10s %-10s %s\n",
				item.StorePath, item.ItemType, item.Format, item.AbbrevTitle(48))
		}
		fmt.Printf("\n%d item(s)\n", len(items))
		return nil
	},
}

// itemTypeNames returns the comma-joined list of recognized item types.
func itemTypeNames() string {
	names := make([]string, len(models.ItemTypes))
	for i, t := range models.ItemTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func init() {
	listCmd.Flags().StringVar(&listType, "type", "", "Filter by item type (note, resource, doc, ...)")
	_ = listCmd.RegisterFlagCompletionFunc("type", completeItemTypes)
	rootCmd.AddCommand(listCmd)
}
