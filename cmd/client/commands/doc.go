// Package commands implements the olaf-client CLI: a root command
// carrying the shared --config flag, and run/fingerprint subcommands.
package commands
