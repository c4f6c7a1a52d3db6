package commands

import (
	"github.com/spf13/cobra"

	"olaf/internal/config"
)

var configPath string

// Execute builds and runs the olaf-server command tree.
func Execute() error {
	root := &cobra.Command{
		Use:   "olaf-server",
		Short: "Run a neighbourhood relay server",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (optional)")

	root.AddCommand(runCmd(), keygenCmd())
	return root.Execute()
}

func loadConfig() (config.ServerConfig, error) {
	return config.LoadServerConfig(configPath)
}
