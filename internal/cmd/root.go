// Package cmd provides CLI commands for the hiscore tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/config"
	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/style"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// Command groups.
const (
	GroupScores = "scores"
	GroupConfig = "config"
)

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "hiscore",
	Short: "Shared high score table guarded by a file lock",
	Long: `hiscore keeps a high score table in a flat file that several processes
can update at once. Every update rereads, merges and rewrites the file while
holding an exclusive advisory lock. When the file is locked, missing or
unusable, scores are kept in a local table instead.

Start two copies against the same file to see the lock at work:
  hiscore hold 30s      # in one terminal
  hiscore add 4200      # in another`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel the command's context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return exitCode(rootCmd.ExecuteContext(ctx))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case lock.IsInterrupted(err):
		style.PrintWarning("interrupted")
		return ExitInterrupted
	default:
		style.PrintError("%v", err)
		return ExitError
	}
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupScores, Title: "Score Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.hiscore/config.toml)")
	flags.String("dir", "", "directory holding the score file and log")
	flags.String("file", "", "score file name, relative to --dir unless absolute")
	flags.Int("max-records", 0, "number of entries the table keeps")
	flags.Duration("lock-timeout", 0, "how long to wait for the file lock when saving")
	flags.Bool("name-under-lock", false, "ask for the player's name while holding the lock")
	flags.Bool("plain", false, "plain output and line prompts")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	bind := map[string]string{
		config.KeyDir:           "dir",
		config.KeyFile:          "file",
		config.KeyMaxRecords:    "max-records",
		config.KeyLockTimeout:   "lock-timeout",
		config.KeyNameUnderLock: "name-under-lock",
		config.KeyPlain:         "plain",
		config.KeyLogLevel:      "log-level",
	}
	for key, flag := range bind {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

// loadConfig resolves the effective configuration: defaults, then the
// TOML file, then HISCORE_* environment variables and flags.
func loadConfig() (*config.Config, error) {
	path, required := cfgFile, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(v); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// requireSubcommand is the RunE of commands that only group subcommands.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("requires a subcommand")
	}
	return fmt.Errorf("unknown subcommand %q for %q", args[0], cmd.CommandPath())
}
