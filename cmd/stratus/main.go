package main

import (
	"os"

	"github.com/ngmaloney/stratus-terminal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
