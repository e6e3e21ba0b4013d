package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and modify d5s configuration.

Configuration is stored in ~/.config/d5s/config.yaml. Every key can also
be set through the environment as D5S_<SECTION>_<KEY>.

Examples:
  d5s config get downloads.path
  d5s config set downloads.path ~/Schoolbooks
  d5s config set downloads.max_concurrent 4`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := config.GetValue(key)
		if value == nil {
			return fmt.Errorf("key not found: %s", key)
		}
		fmt.Printf("%s = %v\n", key, value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := args[1]

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("failed to set config: %w", err)
		}

		Successf("Set %s = %s", key, value)
		fmt.Printf("Config saved to: %s\n", config.GetConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration and data paths",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config file: %s\n", config.GetConfigPath())
		fmt.Printf("Database:    %s\n", config.GetDBPath())
		fmt.Printf("Session:     %s\n", config.GetSessionPath())
		fmt.Printf("Snapshots:   %s\n", config.GetCookiesDir())
		fmt.Printf("Downloads:   %s\n", config.Get().Downloads.Path)
		fmt.Printf("Catalogs:    %s\n", config.GetMetaDir())
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
