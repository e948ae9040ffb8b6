package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/trovekit/trove/pkg/models"
)

// completeActionNames lists registered action names with their
// descriptions.
func completeActionNames(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Registry == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, name := range Registry.Names() {
		if toComplete != "" && !strings.HasPrefix(name, toComplete) {
			continue
		}
		action, err := Registry.Lookup(name)
		if err != nil {
			continue
		}
		names = append(names, name+"\t"+action.Description())
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeStorePaths lists live item paths in the workspace.
func completeStorePaths(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Store == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var paths []string
	err := Store.WalkItems("", func(p models.StorePath) error {
		s := string(p)
		if toComplete == "" || strings.HasPrefix(s, toComplete) {
			paths = append(paths, s)
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return paths, cobra.ShellCompDirectiveNoFileComp
}

// completeItemTypes lists recognized item type values.
func completeItemTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(models.ItemTypes))
	for i, t := range models.ItemTypes {
		out[i] = string(t)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
