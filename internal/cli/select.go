package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/internal/storage"
	"github.com/trovekit/trove/pkg/models"
)

var (
	selectPrev    bool
	selectNext    bool
	selectPop     bool
	selectClear   bool
	selectHistory bool
)

var selectCmd = &cobra.Command{
	Use:   "select [path]...",
	Short: "Show or change the current selection",
	Long: `With paths, make them the new current selection (pushed onto the
selection history). With no arguments, show the current selection.

Navigation flags move through the selection history:
  --prev     step back to the previous selection
  --next     step forward again
  --pop      drop the current selection and restore the previous one
  --clear    make the current selection empty
  --history  show the whole selection history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}
		sels := Store.Selections

		switch {
		case selectHistory:
			history, current := sels.History()
			if len(history) == 0 {
				fmt.Println("Selection history is empty.")
				return nil
			}
			for i, sel := range history {
				marker := " "
				if i == current {
					marker = "*"
				}
				fmt.Printf("%s %2d: %d item(s)\n", marker, i, len(sel.Paths))
				for _, p := range sel.Paths {
					fmt.Printf("      %s\n", p)
				}
			}
			return nil

		case selectPrev:
			sel, err := sels.Previous()
			if err != nil {
				return fmt.Errorf("moving to previous selection: %w", err)
			}
			printSelection(sel)
			return nil

		case selectNext:
			sel, err := sels.Next()
			if err != nil {
				return fmt.Errorf("moving to next selection: %w", err)
			}
			printSelection(sel)
			return nil

		case selectPop:
			sel, err := sels.Pop()
			if err != nil {
				return fmt.Errorf("popping selection: %w", err)
			}
			printSelection(sel)
			return nil

		case selectClear:
			if err := sels.Push(storage.Selection{}); err != nil {
				return fmt.Errorf("clearing selection: %w", err)
			}
			fmt.Println("Selection cleared.")
			return nil
		}

		if len(args) == 0 {
			printSelection(sels.Current())
			return nil
		}

		paths := make([]models.StorePath, 0, len(args))
		for _, arg := range args {
			p, ok := Store.ResolvePath(arg)
			if !ok {
				return fmt.Errorf("no item at %q", arg)
			}
			paths = append(paths, p)
		}
		if err := sels.Push(storage.Selection{Paths: paths}); err != nil {
			return fmt.Errorf("updating selection: %w", err)
		}
		printSelection(sels.Current())
		return nil
	},
	ValidArgsFunction: completeStorePaths,
}

var unselectCmd = &cobra.Command{
	Use:   "unselect <path>...",
	Short: "Remove items from the current selection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		targets := make([]models.StorePath, 0, len(args))
		for _, arg := range args {
			p, ok := Store.ResolvePath(arg)
			if !ok {
				return fmt.Errorf("no item at %q", arg)
			}
			targets = append(targets, p)
		}
		if err := Store.Selections.RemoveValues(targets); err != nil {
			return fmt.Errorf("updating selection: %w", err)
		}
		printSelection(Store.Selections.Current())
		return nil
	},
	ValidArgsFunction: completeStorePaths,
}

func printSelection(sel storage.Selection) {
	if sel.IsEmpty() {
		fmt.Println("Nothing selected.")
		return
	}
	fmt.Printf("%d item(s) selected:\n", len(sel.Paths))
	for _, p := range sel.Paths {
		fmt.Printf("  %s\n", p)
	}
}

// selectionOf wraps store paths as a Selection.
func selectionOf(paths []models.StorePath) storage.Selection {
	return storage.Selection{Paths: paths}
}

func init() {
	selectCmd.Flags().BoolVar(&selectPrev, "prev", false, "Move to the previous selection in history")
	selectCmd.Flags().BoolVar(&selectNext, "next", false, "Move to the next selection in history")
	selectCmd.Flags().BoolVar(&selectPop, "pop", false, "Drop the current selection")
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "Clear the current selection")
	selectCmd.Flags().BoolVar(&selectHistory, "history", false, "Show the selection history")
	selectCmd.MarkFlagsMutuallyExclusive("prev", "next", "pop", "clear", "history")
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(unselectCmd)
}
