package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mirra-dev/mirra/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	// Pick up GEMINI_API_KEY from a local .env when present.
	_ = godotenv.Load()

	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
