package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/internal/core"
)

var runRerun bool

var runCmd = &cobra.Command{
	Use:   "run <action> [path-or-url]...",
	Short: "Run an action over items",
	Long: `Run a registered action. Arguments may be store paths, external files,
or URLs; external locators are imported first. With no arguments the
current selection is used.

Output items are saved, provenance is recorded in their history, and the
outputs become the current selection. A run whose outputs already exist
is skipped; use --rerun to force re-execution.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("runner not initialized")
		}

		actionName := args[0]
		result, err := Runner.RunAction(actionName, args[1:], core.RunOptions{Rerun: runRerun})
		if err != nil {
			return fmt.Errorf("running %s: %w", actionName, err)
		}

		fmt.Printf("%s produced %d item(s):\n", actionName, len(result.Items))
		for _, item := range result.Items {
			fmt.Printf("  %s\n", item.StorePath)
		}
		return nil
	},
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeActionNames(cmd, args, toComplete)
		}
		return completeStorePaths(cmd, args, toComplete)
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List registered actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("registry not initialized")
		}

		names := Registry.Names()
		if len(names) == 0 {
			fmt.Println("No actions registered.")
			return nil
		}

		for _, name := range names {
			action, err := Registry.Lookup(name)
			if err != nil {
				continue
			}
			fmt.Printf("  %-24s %s\n", name, action.Description())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runRerun, "rerun", false, "Force re-execution even if cached outputs exist")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(actionsCmd)
}
