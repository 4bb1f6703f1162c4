package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/venuealloc/internal/cli"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Services are wired from configuration once flags are parsed.
	app := &cli.App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	defer app.Close()

	rootCmd := cli.NewRootCmd(app)
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}
