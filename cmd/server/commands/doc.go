// Package commands implements the olaf-server CLI: a root command
// carrying the shared --config flag, and run/keygen subcommands.
package commands
