package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/milescrape/milescrape/cmd/cli/commands"
)

func main() {
	// The server address may come from a .env file; a missing file is fine
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
