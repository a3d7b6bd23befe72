package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/processor"
)

var probeCmd = &cobra.Command{
	Use:     "probe",
	GroupID: GroupScores,
	Short:   "Check that the score file can be locked, read and written",
	Long: `Lock the score file, read it and write the same contents back.

A locked file is reported as busy and does not count as a failure.

Examples:
  hiscore probe
  hiscore probe --file /tmp/scores.txt`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Probe(cmd.Context(), a.cfg.ProbeLock(processor.LockPrompt)); err != nil {
		return err
	}

	h := a.store.History()
	switch {
	case h.CanReadWrite:
		a.printf("%s: can read and write\n", a.store.Path())
	case h.Failures == 0:
		a.printf("%s: busy, locked by another process\n", a.store.Path())
	default:
		a.printf("%s: unusable after %d failed attempt(s)\n", a.store.Path(), h.Failures)
	}
	return nil
}
