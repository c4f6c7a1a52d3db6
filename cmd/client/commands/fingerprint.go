package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olaf/internal/app"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print this client's identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := app.NewClient(cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Fingerprint: %s\n", client.Engine.Fingerprint())
			return nil
		},
	}
}
