package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/model"
)

var boundariesJSON bool

func init() {
	rootCmd.AddCommand(boundariesCmd)
	boundariesCmd.Flags().BoolVar(&boundariesJSON, "json", false, "Output as JSON")
}

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Show configured limits and current usage",
	RunE:  runBoundaries,
}

func runBoundaries(cmd *cobra.Command, args []string) error {
	var resp struct {
		Limits map[model.Category]*boundary.Limits `json:"limits"`
		Usage  map[model.Category]boundary.Usage   `json:"usage"`
	}
	if err := apiGet("/v1/boundaries", &resp); err != nil {
		return err
	}

	if boundariesJSON {
		printJSON(resp)
		return nil
	}

	for _, c := range model.Categories {
		limits, ok := resp.Limits[c]
		if !ok {
			continue
		}
		usage := resp.Usage[c]
		fmt.Printf("%s:\n", c)
		if limits.MaxAutoExpense > 0 {
			fmt.Printf("  auto expense     $%.2f per action\n", limits.MaxAutoExpense)
		}
		if limits.MaxTradeSize > 0 {
			fmt.Printf("  trade size       $%.2f per trade\n", limits.MaxTradeSize)
		}
		if limits.MaxDailySpend > 0 {
			fmt.Printf("  daily spend      $%.2f / $%.2f\n", usage.DailySpend, limits.MaxDailySpend)
		}
		if limits.MaxWeeklySpend > 0 {
			fmt.Printf("  weekly spend     $%.2f / $%.2f\n", usage.WeeklySpend, limits.MaxWeeklySpend)
		}
		if limits.MaxAutoPostsPerDay > 0 {
			fmt.Printf("  daily posts      %d / %d\n", usage.DailyPosts, limits.MaxAutoPostsPerDay)
		}
		if limits.MaxAutoCommitLines > 0 {
			fmt.Printf("  commit lines     %d max\n", limits.MaxAutoCommitLines)
		}
		if len(limits.BlockedKeywords) > 0 {
			fmt.Printf("  blocked keywords %d configured\n", len(limits.BlockedKeywords))
		}
		if len(limits.BlockedPaths) > 0 {
			fmt.Printf("  blocked paths    %d configured\n", len(limits.BlockedPaths))
		}
		fmt.Printf("  actions today    %d\n", usage.DailyActions)
	}
	return nil
}
