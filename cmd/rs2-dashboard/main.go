package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"scan-report-dashboard/internal/app"
	"scan-report-dashboard/internal/report"
)

func main() {
	err := app.Main(context.Background(), report.RS2Name, os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
