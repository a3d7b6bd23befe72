package cmd

import (
	"github.com/spf13/cobra"
)

var showWatch bool

var showCmd = &cobra.Command{
	Use:     "show",
	GroupID: GroupScores,
	Short:   "Show the high score table",
	Long: `Show the high score table from the score file.

With --watch the table is shown again whenever the file changes, until
interrupted.

Examples:
  hiscore show
  hiscore show --watch`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showWatch, "watch", "w", false, "redisplay when the score file changes")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.proc.Open(ctx); err != nil {
		return err
	}
	a.proc.Show(ctx)
	if !showWatch {
		return nil
	}

	sub, err := a.store.Watch()
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Events():
			if !ok {
				return nil
			}
			a.proc.Show(ctx)
		case err := <-sub.Errors():
			a.log.Warn("watching scores file", "error", err)
		}
	}
}
