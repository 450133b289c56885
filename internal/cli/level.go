package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level [1-4]",
	Short: "Show or change the autonomy level",
	Long: "Without an argument, prints the current autonomy level.\n" +
		"With one, changes it: 1 manual, 2 bounded, 3 supervised, 4 autonomous.\n" +
		"Hard blocks hold at every level.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		var s struct {
			AutonomyLevel int    `json:"autonomy_level"`
			LevelLabel    string `json:"level_label"`
		}
		if err := apiGet("/v1/status", &s); err != nil {
			return err
		}
		fmt.Printf("%d (%s)\n", s.AutonomyLevel, s.LevelLabel)
		return nil
	}

	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("level must be a number 1-4, got %q", args[0])
	}
	if err := apiSend("PUT", "/v1/level", map[string]int{"level": level}, nil); err != nil {
		return err
	}
	fmt.Printf("Autonomy level set to %d\n", level)
	return nil
}
