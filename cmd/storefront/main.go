package main

import (
	"context"
	"os"

	"github.com/fastygo/storefront/internal/cli"
	"github.com/fastygo/storefront/internal/output"
)

// Set through -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, buildTime)

	err := cli.Execute(context.Background(), os.Args[1:], cli.Options{})
	if err == nil {
		return
	}
	cliErr := output.Describe(err)
	printer := output.NewPrinter(output.PrinterOptions{Colors: output.ResolveColors(true)})
	printer.FormatError(cliErr)
	os.Exit(cliErr.ExitCode)
}
