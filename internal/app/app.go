// Package app wires the editor core together: logger, node catalog,
// engine client, progress stream, and orchestrator.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk/latentflow/internal/catalog"
	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/engine"
	"github.com/vk/latentflow/internal/job"
	"github.com/vk/latentflow/internal/store"
	"github.com/vk/latentflow/internal/store/postgres"
	"github.com/vk/latentflow/internal/wire"
	"github.com/vk/latentflow/internal/workflow"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *catalog.Registry
}

// NewApp constructs the application with its own isolated logger and an
// empty catalog; definitions load in Run.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: catalog.New(),
	}
}

// Run loads the node catalog, imports the workflow, submits it, and
// follows the job to a terminal state. Returns a non-nil error when the
// job fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	defs, err := catalog.LoadManifests(ctx, a.config.NodesPath)
	if err != nil {
		return fmt.Errorf("failed to load node manifests: %w", err)
	}
	a.registry.Register(defs...)

	data, err := os.ReadFile(a.config.WorkflowPath)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}
	wf, err := wire.Import(ctx, data, a.registry)
	if err != nil {
		return fmt.Errorf("failed to import workflow: %w", err)
	}
	a.logger.Info("Workflow imported.", "nodes", len(wf.Nodes()), "connections", len(wf.Connections()))

	if a.config.StoreDSN != "" {
		if err := a.persistWorkflow(ctx, wf); err != nil {
			return err
		}
	}

	timeout := 30 * time.Second
	if a.config.RequestTimeout != "" {
		parsed, err := time.ParseDuration(a.config.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request timeout %q: %w", a.config.RequestTimeout, err)
		}
		timeout = parsed
	}

	client := engine.NewClient(a.config.ServerURL, engine.WithTimeout(timeout))
	stream, err := engine.Dial(ctx, a.config.ServerURL, engine.StreamOptions{
		InsecureSkipVerify: a.config.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("failed to connect progress stream: %w", err)
	}
	defer stream.Close()

	done := make(chan job.State, 1)
	var once sync.Once

	orch := job.New(ctx, client, stream, job.WithOnChange(func(s job.State) {
		switch s.Status {
		case job.StatusRunning:
			a.logger.Info("Job progress.", "jobId", s.JobID, "step", s.CurrentStep, "totalSteps", s.TotalSteps)
		case job.StatusCompleted, job.StatusFailed, job.StatusCancelled:
			once.Do(func() { done <- s })
		}
	}))
	defer orch.Close()

	if err := orch.Submit(ctx, wf, nil); err != nil {
		return err
	}

	select {
	case final := <-done:
		return a.report(final)
	case <-ctx.Done():
		cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := orch.Cancel(ctxlog.WithLogger(cancelCtx, a.logger)); err != nil {
			a.logger.Warn("Cancel on shutdown failed.", "error", err)
		}
		return ctx.Err()
	}
}

// persistWorkflow connects to the configured workflow store and saves the
// workflow document there.
func (a *App) persistWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	pool, err := pgxpool.New(ctx, a.config.StoreDSN)
	if err != nil {
		return fmt.Errorf("failed to connect workflow store: %w", err)
	}
	defer pool.Close()

	st := postgres.New(pool)
	if err := st.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare workflow store schema: %w", err)
	}

	rec, err := saveWorkflow(ctx, st, wf, filepath.Base(a.config.WorkflowPath))
	if err != nil {
		return err
	}
	a.logger.Info("Workflow saved.", "workflowId", rec.ID, "name", rec.Name)
	return nil
}

// saveWorkflow encodes the workflow as a document record and saves it. The
// workflow's own id is reused when it is a uuid; otherwise a fresh one is
// assigned. A workflow without a name is named after its source file.
func saveWorkflow(ctx context.Context, st store.Store, wf *workflow.Workflow, fallbackName string) (*store.Record, error) {
	doc, err := workflow.EncodeDocument(wf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow document: %w", err)
	}

	id, err := uuid.Parse(wf.ID)
	if err != nil {
		id = uuid.New()
	}
	name := wf.Name
	if name == "" {
		name = fallbackName
	}

	rec := &store.Record{
		ID:       id,
		Name:     name,
		Folder:   wf.Folder,
		Tags:     wf.Tags,
		Document: doc,
	}
	if err := st.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}
	return rec, nil
}

func (a *App) report(final job.State) error {
	switch final.Status {
	case job.StatusCompleted:
		a.logger.Info("Job completed.", "jobId", final.JobID, "outputs", len(final.Outputs))
		for _, ref := range final.Outputs {
			fmt.Fprintf(a.outW, "%s\n", ref.Filename)
		}
		return nil
	case job.StatusCancelled:
		a.logger.Info("Job cancelled.", "jobId", final.JobID)
		return nil
	default:
		return fmt.Errorf("job failed: %w", final.Err)
	}
}
