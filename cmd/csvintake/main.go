package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvintake/internal/cli"
)

func main() {
	// A missing .env is normal; the process environment is used as is.
	// Variables already set take precedence over the file.
	_ = godotenv.Load()

	app := cli.NewApp(os.Stdout, os.Stderr)
	os.Exit(app.Run(context.Background(), os.Args[1:]))
}
