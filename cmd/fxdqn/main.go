package main

import (
	"os"

	"github.com/rustyeddy/fxdqn/cmd/fxdqn/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
