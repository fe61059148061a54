package main

import (
	"fmt"
	"os"

	"github.com/calliope-studio/portal/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
