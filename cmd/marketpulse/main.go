package main

import (
	"os"

	"marketpulse/cmd/handlers"
	"marketpulse/internal/logger"
	"marketpulse/internal/textproc"
)

func main() {
	logger.Init()   // Initialize the logger
	textproc.Init() // Stopword and abbreviation tables
	if err := handlers.Execute(); err != nil {
		os.Exit(1)
	}
}
