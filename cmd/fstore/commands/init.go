package commands

import (
	"fmt"

	"github.com/marmos91/fstore/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample fstore configuration file.

By default the configuration file is created at
$XDG_CONFIG_HOME/fstore/config.yaml. Use --config to specify a custom path.

Examples:
  fstore init
  fstore init --config /etc/fstore/config.yaml
  fstore init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error
	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to set home, database, and listen")
	fmt.Println("  2. Apply the metadata schema: fstore migrate")
	fmt.Printf("  3. Start the server: fstore serve --config %s\n", configPath)
	return nil
}
