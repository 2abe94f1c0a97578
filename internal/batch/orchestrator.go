// Package batch runs multi-file uploads with bounded, staggered
// concurrency. Files are launched in input order with a fixed delay
// between starts; at most MaxInFlight files occupy the working stages at
// once. One file's failure never affects its siblings.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/common"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/pipeline"
)

// Runner is the per-file processor. Process must be safe for concurrent
// calls and must return a terminal outcome rather than panic.
type Runner interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

type Config struct {
	// MaxInFlight bounds concurrently processing files.
	MaxInFlight int
	// StaggerDelay is the minimum spacing between successive task starts.
	StaggerDelay time.Duration
	// TaskTimeout bounds one file's end-to-end processing; zero disables it.
	TaskTimeout time.Duration
}

// Request is one batch submission. All files share the vessel, category
// and destination; Existing is snapshotted once so every file in the batch
// dedupes against the same baseline.
type Request struct {
	Files              []entity.SourceFile
	Vessel             entity.Vessel
	Category           constants.Category
	Destination        []string
	Existing           []entity.CertificateRecord
	OverrideDuplicates bool
}

// Result aggregates per-file outcomes, index-aligned with Request.Files.
type Result struct {
	Files             []pipeline.Outcome `json:"files"`
	Total             int                `json:"total"`
	Succeeded         int                `json:"succeeded"`
	Failed            int                `json:"failed"`
	ManualInput       int                `json:"manual_input"`
	PendingResolution int                `json:"pending_resolution"`
}

type Orchestrator struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewOrchestrator(cfg Config, runner Runner, logger *slog.Logger) *Orchestrator {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, runner: runner, logger: logger}
}

// Run processes every file in req and blocks until all tasks reach a
// terminal status. The returned error reflects only batch-level
// cancellation; per-file failures live in the result entries.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	n := len(req.Files)
	res := Result{Files: make([]pipeline.Outcome, n), Total: n}
	if n == 0 {
		return res, nil
	}

	tasks := make([]*Task, n)
	for i, f := range req.Files {
		tasks[i] = NewTask(i, f.Filename)
	}

	batchID := uuid.NewString()
	ctx = common.WithRequestID(ctx, batchID)
	o.logger.Info("batch.started", "batch_id", batchID, "files", n,
		"max_in_flight", o.cfg.MaxInFlight, "stagger", o.cfg.StaggerDelay)

	// rate.Every treats a non-positive delay as "no spacing".
	starts := rate.NewLimiter(rate.Every(o.cfg.StaggerDelay), 1)
	sem := semaphore.NewWeighted(int64(o.cfg.MaxInFlight))
	var wg sync.WaitGroup

	for i := range req.Files {
		if err := starts.Wait(ctx); err != nil {
			o.cancelFrom(ctx, &res, tasks, i)
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			o.cancelFrom(ctx, &res, tasks, i)
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			res.Files[i] = o.runOne(ctx, req, tasks[i])
		}(i)
	}
	wg.Wait()

	for _, out := range res.Files {
		switch out.Status {
		case constants.TaskCompleted:
			res.Succeeded++
		case constants.TaskManualInput:
			res.ManualInput++
		case constants.TaskPendingResolution:
			res.PendingResolution++
		default:
			res.Failed++
		}
	}
	o.logger.Info("batch.finished", "total", res.Total, "succeeded", res.Succeeded,
		"failed", res.Failed, "manual_input", res.ManualInput,
		"pending_resolution", res.PendingResolution)
	return res, ctx.Err()
}

func (o *Orchestrator) runOne(ctx context.Context, req Request, task *Task) pipeline.Outcome {
	if o.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.TaskTimeout)
		defer cancel()
	}
	out := o.runner.Process(ctx, pipeline.Request{
		Index:              task.Index,
		File:               req.Files[task.Index],
		Vessel:             req.Vessel,
		Category:           req.Category,
		Destination:        req.Destination,
		Existing:           req.Existing,
		OverrideDuplicates: req.OverrideDuplicates,
		Progress:           task.Set,
	})
	task.Set(out.Status)
	return out
}

// cancelFrom marks every not-yet-launched task failed when the batch
// context is canceled mid-launch.
func (o *Orchestrator) cancelFrom(ctx context.Context, res *Result, tasks []*Task, from int) {
	for i := from; i < len(tasks); i++ {
		tasks[i].Set(constants.TaskFailed)
		res.Files[i] = pipeline.Outcome{
			Index:    i,
			Filename: tasks[i].Filename,
			Status:   constants.TaskFailed,
			Message:  ctx.Err().Error(),
		}
	}
}
