package main

import (
	"os"

	"olaf/cmd/server/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
