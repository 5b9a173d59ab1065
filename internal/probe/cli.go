package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/aimrank/pkg/logger"
)

// SetupLogging initializes the global logger. When logFile is set, output is
// written to both stdout and the file; the returned func closes it.
func SetupLogging(format, logFile string, verbose bool) (func(), error) {
	var w io.Writer = os.Stdout
	cleanup := func() {}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		cleanup = func() { _ = file.Close() }
	}
	if err := logger.InitWithWriter(w, format); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return cleanup, nil
}

// File permission constants.
const (
	logFilePermission = 0o600
)

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`aimrank ranking probe
=====================

Walks every page of every sort key served by a running aimrank instance and
checks rank density, page completeness, sort order and the page window.

Usage:
  rank-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -size int
        Page size to request (default 10)
  -workers int
        Number of concurrent page fetchers (default CPU cores * 2)
  -sector string
        Restrict every ranking to one sector
  -timeout duration
        HTTP request timeout (default 10s)
  -log-format string
        text or json (default "text")
  -log string
        Also write logs to this file
  -verbose
        Log every fetched page
  -help
        Show this help message

Examples:
  rank-probe -size 3
  rank-probe -url http://localhost:8080 -sector Semiconductors -verbose
`)
}
