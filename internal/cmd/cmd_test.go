package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	cfgPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(cfgPath); err != nil {
		require.NoError(t, os.WriteFile(cfgPath, nil, 0644))
	}

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	base := []string{"--config", cfgPath, "--dir", dir, "--plain"}
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readScores(t *testing.T, path string) record.Set {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	set, err := record.DecodeAll(f)
	require.NoError(t, err)
	return set
}

func TestAddSeedsAndSaves(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "Ada\n", "add", "4200")
	require.NoError(t, err)
	assert.Contains(t, out, "High Scores from File")
	assert.Contains(t, out, "Ada")

	set := readScores(t, filepath.Join(dir, "scores.txt"))
	assert.Equal(t, []int{41336440, 35000, 4200, 2500}, set.Scores())
	assert.FileExists(t, filepath.Join(dir, "hiscore.log"))
}

func TestAddRespectsMaxRecords(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "Ada\n", "add", "1", "--max-records", "3")
	require.NoError(t, err)
	assert.Len(t, readScores(t, filepath.Join(dir, "scores.txt")), 3)
}

func TestAddRejectsBadScore(t *testing.T) {
	for _, arg := range []string{"abc", "-5", "1000000000", "10000000000"} {
		dir := t.TempDir()
		_, err := run(t, dir, "", "add", "--", arg)
		assert.ErrorContains(t, err, "invalid score", arg)
		_, statErr := os.Stat(filepath.Join(dir, "scores.txt"))
		assert.True(t, os.IsNotExist(statErr), "%s: score file touched", arg)
	}
}

func TestParseScoreBounds(t *testing.T) {
	score, err := parseScore("999999999")
	require.NoError(t, err)
	assert.Equal(t, record.MaxScore, score)

	_, err = parseScore("1000000000")
	assert.ErrorContains(t, err, "must be at most 999999999")
}

func TestAddFallsBackWhenLocked(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "show")
	require.NoError(t, err)
	path := filepath.Join(dir, "scores.txt")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	other := lock.NewPathLock(path)
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = other.Unlock() }()

	out, err := run(t, dir, "Ada\n", "add", "99", "--lock-timeout", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "High Scores (Local Copy)")
	assert.Contains(t, out, "uncertain", "a busy file leaves writability unknown")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestShow(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Scott Safran")
	assert.Contains(t, out, "41336440")
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "unusable after 1 failed attempt(s)")

	_, err = run(t, dir, "", "show")
	require.NoError(t, err)
	out, err = run(t, dir, "", "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "can read and write")
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "300\nAda\n0\n", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "Ada")

	set := readScores(t, filepath.Join(dir, "scores.txt"))
	assert.Contains(t, set.Scores(), 300)
}

func TestPlayNotAHighScore(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "show", "--max-records", "3")
	require.NoError(t, err)

	out, err := run(t, dir, "1\n0\n", "play", "--max-records", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Not a high score")
	assert.Len(t, readScores(t, filepath.Join(dir, "scores.txt")), 3)
}

func TestHold(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "show")
	require.NoError(t, err)

	out, err := run(t, dir, "", "hold", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "holding lock")
	assert.Contains(t, out, "released lock")

	_, err = run(t, dir, "", "hold", "soon")
	assert.ErrorContains(t, err, "invalid duration")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	newPath := filepath.Join(dir, "sub", "hiscore.toml")
	_, err := run(t, dir, "", "config", "init", "--config", newPath)
	require.NoError(t, err)
	assert.FileExists(t, newPath)

	_, err = run(t, dir, "", "config", "init", "--config", newPath)
	assert.Error(t, err, "existing file needs --force")
	_, err = run(t, dir, "", "config", "init", "--config", newPath, "--force")
	require.NoError(t, err)

	out, err := run(t, dir, "", "config", "show", "--max-records", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "[store]")
	assert.Contains(t, out, "max_records = 7")
}

func TestConfigRequiresSubcommand(t *testing.T) {
	_, err := run(t, t.TempDir(), "", "config")
	assert.ErrorContains(t, err, "requires a subcommand")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(nil))
	assert.Equal(t, ExitInterrupted, exitCode(fmt.Errorf("%w: %w", lock.ErrInterrupted, context.Canceled)))
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
}
