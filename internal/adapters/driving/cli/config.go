package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings",
	Long: `View and change the settings kept in config.toml.

Flags given to a command override the stored values for that run.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its effective value",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Long: `Store a setting. Lists are comma-separated and durations use Go
syntax, for example:

  trufflepig config set paths ./build/contracts,./deployments
  trufflepig config set debounce 250ms
  trufflepig config set journal sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored setting so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	list := settingsService.List()
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		source := "default"
		if s.IsSet {
			source = "config"
		}
		rows = append(rows, []string{s.Key, s.Value, source, s.Description})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KEY", "VALUE", "SOURCE", "DESCRIPTION"}, rows))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s reset to default\n", args[0])
	return nil
}
