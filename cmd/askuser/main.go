package main

import (
	"os"

	"github.com/askuser/askuser/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
