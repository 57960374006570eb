package main

import (
	"log/slog"
	"os"

	"github.com/aevon-lab/tokenledger/internal/cli"
)

func main() {
	// Replaced once the config is loaded; covers errors raised before that.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
