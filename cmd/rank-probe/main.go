package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/aimrank/internal/probe"
)

// Default configuration constants.
const (
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		pageSize  = flag.Int("size", probe.DefaultPageSize, "Page size to request")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent page fetchers")
		sector    = flag.String("sector", "", "Restrict every ranking to one sector")
		timeout   = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		logFile   = flag.String("log", "", "Also write logs to this file")
		verbose   = flag.Bool("verbose", false, "Log every fetched page")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	closeLog, err := probe.SetupLogging(*logFormat, *logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	_, err = probe.Run(ctx, &probe.Config{
		BaseURL:  *baseURL,
		PageSize: *pageSize,
		Workers:  *workers,
		Timeout:  *timeout,
		Sector:   *sector,
		Verbose:  *verbose,
	})
	cancel()
	stop()
	closeLog()
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
