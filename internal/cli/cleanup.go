package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var cleanupOlderThan string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Archive stale transient items",
	Long: `Archive transient items (intermediate outputs of composite actions)
that have not been modified within the cutoff window.

Archived transients remain available under .trove/archive, so provenance
links to them stay resolvable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("workspace not initialized")
		}

		cutoff, err := parseAgeDuration(cleanupOlderThan)
		if err != nil {
			return fmt.Errorf("parsing --older-than: %w", err)
		}

		swept, err := Store.SweepTransients(cutoff)
		if err != nil {
			return fmt.Errorf("sweeping transient items: %w", err)
		}

		if len(swept) == 0 {
			fmt.Println("No stale transient items.")
			return nil
		}

		fmt.Printf("Archived %d transient item(s):\n", len(swept))
		for _, p := range swept {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

// parseAgeDuration parses a human-friendly age string like "7d" or "24h"
// into a duration.
func parseAgeDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil || hours < 0 {
			return 0, fmt.Errorf("invalid hour duration %q", s)
		}
		return time.Duration(hours) * time.Hour, nil
	}

	return 0, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 24h)", s)
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupOlderThan, "older-than", "7d", "Age cutoff for transient items (e.g. 7d, 24h)")
	rootCmd.AddCommand(cleanupCmd)
}
