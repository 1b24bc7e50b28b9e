// Package async runs submitted analyses on a bounded worker pool and records
// their progress in a run store.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
	"github.com/joseph-ayodele/quote-optimizer/internal/repository"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("analysis queue is shutting down")

// Job is one submitted analysis.
type Job struct {
	RunID       string
	Input       pipeline.Input
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Runner executes an analysis. *pipeline.Analyzer satisfies it.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (pipeline.Result, error)
}

// RunStore records run state. *repository.Store satisfies it.
type RunStore interface {
	CreateRun(ctx context.Context, id string, mode entity.Mode, documents int) (repository.Run, error)
	MarkRunning(ctx context.Context, id string) error
	SaveRun(ctx context.Context, id string, res pipeline.Result) error
	FailRun(ctx context.Context, id, msg string) error
}
