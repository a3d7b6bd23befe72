package cmd

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/xcawolfe-amzn/hiscore/internal/config"
	"github.com/xcawolfe-amzn/hiscore/internal/style"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: GroupConfig,
	Short:   "Manage hiscore configuration",
	RunE:    requireSubcommand,
	Long: `Manage hiscore configuration.

Settings come from the built-in defaults, then the TOML config file, then
HISCORE_* environment variables and command line flags.

Commands:
  hiscore config show    Print the effective configuration
  hiscore config init    Write a default config file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to the config file.

An existing file is kept unless --force is given.

Examples:
  hiscore config init
  hiscore config init --config ./hiscore.toml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Default().Write(path, configInitForce); err != nil {
		return err
	}
	style.Out = cmd.ErrOrStderr()
	style.PrintSuccess("wrote %s", path)
	return nil
}
