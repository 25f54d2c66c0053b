package main

import (
	"os"

	"github.com/lodestone-io/lodestone/cmd/lodestone/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}
