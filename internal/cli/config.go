package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/config"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.configPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration in effect: defaults, then the config file, then
CIFRA_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.Config)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !force {
				printWarning("Config file already exists")
				printDetail("%s", c.configPath)
				printNextStep("Overwrite it with", "cifra config init --force")
				return nil
			}
			if err := config.Default().Save(c.configPath); err != nil {
				return err
			}
			printSuccess("Wrote default config")
			printFile(c.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	return cmd
}
