package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/display"
	"github.com/xcawolfe-amzn/hiscore/internal/processor"
)

var playCmd = &cobra.Command{
	Use:     "play",
	GroupID: GroupScores,
	Short:   "Enter scores interactively",
	Long: `Enter scores one after another, as a game would report them.

Each qualifying score is added to the table. Enter 0 to stop. Run two
copies at once against the same file to watch them take turns on the lock.

Examples:
  hiscore play
  hiscore play --name-under-lock --lock-timeout 5s`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	a.display.ShowMessage("hiscore", display.Intro)
	if err := a.proc.Open(ctx); err != nil {
		return err
	}

	for {
		score, err := a.prompter.AskScore(ctx, processor.ScorePrompt)
		if err != nil {
			return err
		}
		if score == 0 {
			return nil
		}
		if !a.proc.Qualifies(score) {
			a.display.ShowMessage("Not a high score", "That score does not make the table. Try again!")
			continue
		}
		if _, err := a.proc.AddEntry(ctx, score); err != nil {
			return err
		}
	}
}
