package commands

import (
	"github.com/spf13/cobra"

	"olaf/internal/config"
)

var configPath string

// Execute builds and runs the olaf-client command tree.
func Execute() error {
	root := &cobra.Command{
		Use:   "olaf-client",
		Short: "Run a client that talks to a home server and serves a local HTTP facade",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (optional)")

	root.AddCommand(runCmd(), fingerprintCmd())
	return root.Execute()
}

func loadConfig() (config.ClientConfig, error) {
	return config.LoadClientConfig(configPath)
}
