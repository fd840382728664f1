package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mott-dev/mott/internal/commands"
)

func main() {
	// Secrets (MOTT_POSTGRES_DSN, GEMINI_API_KEY) may live in a .env file.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
