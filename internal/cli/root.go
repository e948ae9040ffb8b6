// Package cli implements the trove command line interface. Commands use
// package-level service variables that are wired during application
// startup in internal/app.go.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "trove",
	Short: "trove - file-backed content workspace and action runner",
	Long: `Trove manages a workspace of content items (notes, resources, docs,
concepts) stored as plain files with YAML frontmatter, and runs actions
over them: transformations that track provenance, memoize their outputs,
and maintain a selection history so commands compose like a pipeline.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trove %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
