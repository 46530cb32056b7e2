package main

import (
	"github.com/joho/godotenv"

	"assistant/internal/cli"
)

func main() {
	// Best effort: a missing .env file is fine, the API key can come
	// from the real environment.
	_ = godotenv.Load()

	cli.Execute()
}
