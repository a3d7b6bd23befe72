package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

var addCmd = &cobra.Command{
	Use:     "add <score>",
	GroupID: GroupScores,
	Short:   "Add a score to the table",
	Long: `Add a score to the high score table.

The score file is locked, reread, merged with the new entry and rewritten.
If the file is locked by another process you are asked whether to keep
waiting. When the file cannot be used the score is kept in a local table
and the reason is shown.

Examples:
  hiscore add 4200
  hiscore add 4200 --name-under-lock
  echo Ada | hiscore add 4200 --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	score, err := parseScore(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.proc.Open(ctx); err != nil {
		return err
	}
	_, err = a.proc.AddEntry(ctx, score)
	return err
}

func parseScore(s string) (int, error) {
	score, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	if score < 0 {
		return 0, fmt.Errorf("invalid score %d: must not be negative", score)
	}
	if score > record.MaxScore {
		return 0, fmt.Errorf("invalid score %d: must be at most %d", score, record.MaxScore)
	}
	return score, nil
}
