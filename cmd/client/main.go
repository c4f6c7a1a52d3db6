package main

import (
	"os"

	"olaf/cmd/client/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
