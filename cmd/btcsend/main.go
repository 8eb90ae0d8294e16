// Package main provides btcsend, a command line client for the btcsendd daemon.
package main

import (
	"os"

	"github.com/Klingon-tech/btcsend/cmd/btcsend/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
