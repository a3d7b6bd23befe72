package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/processor"
)

var holdCmd = &cobra.Command{
	Use:     "hold <duration>",
	GroupID: GroupScores,
	Short:   "Hold the score file lock for a while",
	Long: `Take the score file lock and keep it for the given duration, so other
processes see the file as busy.

Examples:
  hiscore hold 30s
  hiscore hold 2m --file /tmp/scores.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runHold,
}

func init() {
	rootCmd.AddCommand(holdCmd)
}

func runHold(cmd *cobra.Command, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ok, err := a.store.WithLock(cmd.Context(), a.cfg.TransactLock(processor.LockPrompt), func(ctx context.Context) error {
		a.printf("holding lock on %s for %s\n", a.store.Path(), d)
		a.log.Info("holding lock", "duration", d.String())
		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is locked by another process", a.store.Path())
	}
	a.printf("released lock on %s\n", a.store.Path())
	return nil
}
