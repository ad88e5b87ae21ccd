package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ServerURL    string // base URL of the remote generation engine
	NodesPath    string // node-definition manifests (.hcl)
	WorkflowPath string // execution-graph JSON to submit

	LogFormat string
	LogLevel  string

	// RequestTimeout bounds each HTTP call, as a duration string.
	RequestTimeout string

	// StoreDSN, when set, is the PostgreSQL connection string of the
	// workflow store; the imported workflow is saved there before
	// submission.
	StoreDSN string

	InsecureSkipVerify bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("ServerURL is a required configuration field and cannot be empty")
	}
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
