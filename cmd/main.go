package main

import (
	"os"

	"pocketflix-portal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
