package commands

import (
	"fmt"
	"os"

	"github.com/lodestone-io/lodestone/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample Lodestone configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/lodestone/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  lodestone init

  # Initialize with custom path
  lodestone init --config /etc/lodestone/config.yaml

  # Force overwrite existing config
  lodestone init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Point graph.path at your repository definitions seed file")
	fmt.Println("  3. Start the server with: lodestone start")
	fmt.Printf("  4. Or specify custom config: lodestone start --config %s\n", configPath)

	return nil
}
