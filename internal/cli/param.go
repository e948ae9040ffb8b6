package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Manage workspace action parameters",
	Long: `Manage per-workspace parameter overrides stored in
.trove/settings/params.yml. Parameters configure action behavior, for
example notification webhooks or model choices for external actions.`,
}

var paramListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		keys := Store.Params.Keys()
		if len(keys) == 0 {
			fmt.Println("No parameters set.")
			return nil
		}
		for _, key := range keys {
			value, _ := Store.Params.Get(key)
			fmt.Printf("  %-28s %s\n", key, value)
		}
		return nil
	},
}

var paramGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show the value of a parameter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		value, ok := Store.Params.Get(args[0])
		if !ok {
			return fmt.Errorf("parameter %q is not set", args[0])
		}
		fmt.Println(value)
		return nil
	},
}

var paramSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a parameter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		if err := Store.Params.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("setting parameter: %w", err)
		}
		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var paramUnsetCmd = &cobra.Command{
	Use:   "unset <key>...",
	Short: "Remove parameters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		if err := Store.Params.Unset(args...); err != nil {
			return fmt.Errorf("unsetting parameters: %w", err)
		}
		fmt.Printf("Removed %d parameter(s).\n", len(args))
		return nil
	},
}

func init() {
	paramCmd.AddCommand(paramListCmd)
	paramCmd.AddCommand(paramGetCmd)
	paramCmd.AddCommand(paramSetCmd)
	paramCmd.AddCommand(paramUnsetCmd)
	rootCmd.AddCommand(paramCmd)
}
