package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/cli"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}
	os.Exit(cli.Execute())
}
