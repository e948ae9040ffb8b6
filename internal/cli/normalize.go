package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [path]...",
	Short: "Re-save items in canonical form",
	Long: `Re-save items so their on-disk form matches the current conventions:
frontmatter field order, body normalization, and filename. With no
arguments the whole workspace is normalized.

Normalizing may rename a file when its title-derived filename changed;
selections are updated to the new path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		var paths []models.StorePath
		if len(args) == 0 {
			err := Store.WalkItems("", func(p models.StorePath) error {
				paths = append(paths, p)
				return nil
			})
			if err != nil {
				return fmt.Errorf("scanning workspace: %w", err)
			}
		} else {
			for _, arg := range args {
				p, ok := Store.ResolvePath(arg)
				if !ok {
					return fmt.Errorf("no item at %q", arg)
				}
				paths = append(paths, p)
			}
		}

		renamed := 0
		for _, p := range paths {
			newPath, err := Store.Normalize(p)
			if err != nil {
				return fmt.Errorf("normalizing %s: %w", p, err)
			}
			if newPath != p {
				fmt.Printf("  %s -> %s\n", p, newPath)
				renamed++
			}
		}

		fmt.Printf("Normalized %d item(s), %d renamed.\n", len(paths), renamed)
		return nil
	},
	ValidArgsFunction: completeStorePaths,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
