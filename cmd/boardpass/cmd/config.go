package cmd

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the boardpass configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with the default settings",
	Long: `Write every setting with its default value. The file defaults to
boardpass.yaml in the current directory.

Examples:
  boardpass config init
  boardpass config init /etc/boardpass/boardpass.yaml --force`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	// The file being written may not exist or be valid yet.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		if force, _ := cmd.Flags().GetBool("force"); !force {
			if _, err := os.Stat(filename); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
			}
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), filename)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(GetConfig()); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
