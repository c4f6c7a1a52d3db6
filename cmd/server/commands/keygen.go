package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"olaf/internal/app"
	"olaf/internal/crypto"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Load or generate this server's identity and print its fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			srv, err := app.NewServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Ledger.Close()

			fmt.Printf("Fingerprint: %s\n", crypto.FingerprintPEM(srv.PubPEM))
			return nil
		},
	}
}
