package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/handiism/streetgrab/internal/config"
	"github.com/handiism/streetgrab/internal/tui"
)

func main() {
	configPath := pflag.String("config", "", "Path to config file")
	pflag.Parse()

	settings, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
