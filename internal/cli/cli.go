// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/latentflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("latentflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
latentflow - submit a workflow graph to a generation engine and track it.

Usage:
  latentflow [options] WORKFLOW_PATH

Arguments:
  WORKFLOW_PATH
    Path to an execution-graph JSON file to submit.

Options:
`)
		flagSet.PrintDefaults()
	}

	serverFlag := flagSet.String("server", "http://127.0.0.1:8188", "Base URL of the generation engine.")
	nodesFlag := flagSet.String("nodes", "nodes", "Path to the directory containing node-definition manifests.")
	timeoutFlag := flagSet.String("timeout", "30s", "Per-request timeout for engine HTTP calls.")
	storeFlag := flagSet.String("store", "", "PostgreSQL DSN of the workflow store. When set, the workflow is saved there before submission.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	insecureFlag := flagSet.Bool("insecure", false, "Skip TLS certificate verification.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No workflow path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ServerURL:          *serverFlag,
		NodesPath:          *nodesFlag,
		WorkflowPath:       flagSet.Arg(0),
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		RequestTimeout:     *timeoutFlag,
		StoreDSN:           *storeFlag,
		InsecureSkipVerify: *insecureFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
