package main

import (
	"os"

	"jobpilot.local/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
