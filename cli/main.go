package main

import (
	"os"

	"github.com/venuepulse/venuepulse/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
