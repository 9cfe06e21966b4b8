package main

import (
	"os"

	"github.com/Apie2c/quiz-app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
