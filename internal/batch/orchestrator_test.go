package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/odunayo-falade/fleetdocs/constants"
	"github.com/odunayo-falade/fleetdocs/internal/entity"
	"github.com/odunayo-falade/fleetdocs/internal/pipeline"
)

// fakeRunner tracks the number of simultaneously running Process calls and
// returns a canned status per file index.
type fakeRunner struct {
	mu        sync.Mutex
	active    int
	maxActive int
	calls     int

	delay    time.Duration
	statusBy func(index int) constants.TaskStatus
}

func (f *fakeRunner) Process(ctx context.Context, req pipeline.Request) pipeline.Outcome {
	f.mu.Lock()
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if req.Progress != nil {
		req.Progress(constants.TaskExtracting)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	status := constants.TaskCompleted
	if f.statusBy != nil {
		status = f.statusBy(req.Index)
	}
	return pipeline.Outcome{Index: req.Index, Filename: req.File.Filename, Status: status}
}

func sourceFiles(n int) []entity.SourceFile {
	files := make([]entity.SourceFile, n)
	for i := range files {
		files[i] = entity.SourceFile{
			Filename: fmt.Sprintf("cert-%02d.pdf", i),
			MIMEType: "application/pdf",
			Data:     []byte("%PDF-1.7"),
		}
	}
	return files
}

func TestRunBoundsConcurrency(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	o := NewOrchestrator(Config{MaxInFlight: 3}, runner, nil)

	res, err := o.Run(context.Background(), Request{Files: sourceFiles(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 10 || res.Succeeded != 10 {
		t.Fatalf("expected 10/10 succeeded, got %+v", res)
	}
	if runner.maxActive > 3 {
		t.Fatalf("concurrency bound exceeded: %d", runner.maxActive)
	}
	if runner.calls != 10 {
		t.Fatalf("expected 10 process calls, got %d", runner.calls)
	}
}

func TestRunCompletesWhenFilesExceedBound(t *testing.T) {
	runner := &fakeRunner{delay: 5 * time.Millisecond}
	o := NewOrchestrator(Config{MaxInFlight: 3}, runner, nil)

	type run struct {
		res Result
		err error
	}
	ch := make(chan run, 1)
	go func() {
		res, err := o.Run(context.Background(), Request{Files: sourceFiles(10)})
		ch <- run{res, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.res.Succeeded != 10 {
			t.Fatalf("expected 10 succeeded, got %+v", r.res)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not finish with 10 files and MaxInFlight=3")
	}
}

func TestRunCorrelatesResultsByInputIndex(t *testing.T) {
	runner := &fakeRunner{delay: 5 * time.Millisecond}
	o := NewOrchestrator(Config{MaxInFlight: 4}, runner, nil)

	files := sourceFiles(8)
	res, err := o.Run(context.Background(), Request{Files: files})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, out := range res.Files {
		if out.Index != i {
			t.Fatalf("result %d carries index %d", i, out.Index)
		}
		if out.Filename != files[i].Filename {
			t.Fatalf("result %d: expected %s, got %s", i, files[i].Filename, out.Filename)
		}
	}
}

func TestRunAggregatesMixedOutcomes(t *testing.T) {
	runner := &fakeRunner{statusBy: func(index int) constants.TaskStatus {
		switch index {
		case 0:
			return constants.TaskCompleted
		case 1:
			return constants.TaskFailed
		case 2:
			return constants.TaskManualInput
		default:
			return constants.TaskPendingResolution
		}
	}}
	o := NewOrchestrator(Config{MaxInFlight: 2}, runner, nil)

	res, err := o.Run(context.Background(), Request{Files: sourceFiles(4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 || res.ManualInput != 1 || res.PendingResolution != 1 {
		t.Fatalf("unexpected aggregation: %+v", res)
	}
}

func TestRunStaggersLaunches(t *testing.T) {
	runner := &fakeRunner{}
	o := NewOrchestrator(Config{MaxInFlight: 5, StaggerDelay: 30 * time.Millisecond}, runner, nil)

	start := time.Now()
	if _, err := o.Run(context.Background(), Request{Files: sourceFiles(3)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First launch is immediate, the next two wait one delay each.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("launches not staggered, finished in %v", elapsed)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	o := NewOrchestrator(Config{MaxInFlight: 3}, &fakeRunner{}, nil)
	res, err := o.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Files) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestRunCancellationMarksRemainingFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{delay: 10 * time.Millisecond}
	o := NewOrchestrator(Config{MaxInFlight: 1, StaggerDelay: 50 * time.Millisecond}, runner, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := o.Run(ctx, Request{Files: sourceFiles(5)})
	if err == nil {
		t.Fatalf("expected a cancellation error")
	}
	terminal := 0
	for _, out := range res.Files {
		if out.Status.Terminal() {
			terminal++
		}
	}
	if terminal != len(res.Files) {
		t.Fatalf("every file must reach a terminal status, got %+v", res.Files)
	}
}

func TestTaskTransitionsAreOneDirectional(t *testing.T) {
	task := NewTask(0, "cert.pdf")
	if task.Status() != constants.TaskQueued {
		t.Fatalf("new task must be queued")
	}
	task.Set(constants.TaskExtracting)
	task.Set(constants.TaskCompleted)
	task.Set(constants.TaskValidating)
	if task.Status() != constants.TaskCompleted {
		t.Fatalf("terminal status must stick, got %s", task.Status())
	}
}
