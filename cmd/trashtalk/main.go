package main

import (
	"os"

	"github.com/cjnlabay/midterm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
