package main

import (
	"os"

	"github.com/cafeworks/espresso/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
