package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

type AnalysisQueue struct {
	runner  Runner
	store   RunStore
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*AnalysisQueue)

func WithWorkers(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *AnalysisQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewAnalysisQueue(runner Runner, store RunStore, logger *slog.Logger, opts ...Option) *AnalysisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &AnalysisQueue{
		runner:  runner,
		store:   store,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *AnalysisQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *AnalysisQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	log := q.logger.With("worker_id", workerID, "run_id", job.RunID)

	if err := q.store.MarkRunning(ctx, job.RunID); err != nil {
		log.Error("failed to mark run running", "error", err)
	}
	res, err := q.runner.Run(ctx, job.Input)
	if err != nil {
		log.Error("analysis failed", "error", err, "queued_for", time.Since(job.SubmittedAt))
		// the job context may be what failed; record the outcome regardless
		if ferr := q.store.FailRun(context.Background(), job.RunID, err.Error()); ferr != nil {
			log.Error("failed to record run failure", "error", ferr)
		}
		return
	}
	res.RunID = job.RunID
	if err := q.store.SaveRun(context.Background(), job.RunID, res); err != nil {
		log.Error("failed to save run", "error", err)
		return
	}
	log.Info("analysis completed",
		"mode", res.Recommendation.Mode,
		"total_cost", res.Recommendation.TotalCost,
		"warnings", len(res.Warnings),
	)
}

// Submit records a queued run and enqueues it, returning the run id.
func (q *AnalysisQueue) Submit(ctx context.Context, in pipeline.Input) (string, error) {
	id := uuid.NewString()
	if _, err := q.store.CreateRun(ctx, id, in.Mode, len(in.Documents)); err != nil {
		return "", err
	}
	if err := q.Enqueue(ctx, Job{RunID: id, Input: in, SubmittedAt: time.Now()}); err != nil {
		if ferr := q.store.FailRun(context.Background(), id, err.Error()); ferr != nil {
			q.logger.Error("failed to record run failure", "run_id", id, "error", ferr)
		}
		return "", err
	}
	return id, nil
}

// Enqueue blocks while the queue is full until ctx is done.
func (q *AnalysisQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "run_id", job.RunID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued run for analysis", "run_id", job.RunID, "documents", len(job.Input.Documents))
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "run_id", job.RunID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx is done.
func (q *AnalysisQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

var _ Queue = (*AnalysisQueue)(nil)
var _ Runner = (*pipeline.Analyzer)(nil)
