package scale

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"pixelframe/internal/logging"
)

// workerWaitBudget is the expected upper bound on a frame conversion. A
// wait past it is logged, not aborted; the workers hold references into the
// job's buffers, so Convert must not return before both have finished.
const workerWaitBudget = 50 * time.Millisecond

// Engine converts frames using two worker goroutines, each pinned to an OS
// thread and owning one half of the destination rows. Convert publishes the
// job, wakes both workers, and spins until both report completion.
//
// An Engine is used by one goroutine at a time; the player always calls
// Convert from the render goroutine, both for the swap prefetch and for
// steady-state frames, never concurrently.
type Engine struct {
	logger *slog.Logger

	job        *Job
	sequence   atomic.Uint64
	done       [2]atomic.Uint64
	wake       [2]chan struct{}
	quit       chan struct{}
	waitBudget time.Duration
	started    bool
}

// NewEngine creates an engine; Start must be called before Convert.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		logger:     logging.WithComponent(logger, "scale"),
		wake:       [2]chan struct{}{make(chan struct{}, 1), make(chan struct{}, 1)},
		quit:       make(chan struct{}),
		waitBudget: workerWaitBudget,
	}
}

// Start launches the two workers.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	for i := 0; i < 2; i++ {
		go e.worker(i)
	}
	e.logger.Debug("workers started")
}

// Stop terminates the workers. The engine cannot be restarted.
func (e *Engine) Stop() {
	if !e.started {
		return
	}
	close(e.quit)
	e.started = false
}

// Convert runs one frame conversion across both workers and blocks until
// the full destination has been written.
func (e *Engine) Convert(job *Job) error {
	if !e.started {
		return errors.New("scale: engine not started")
	}
	if job.DstHeight <= 0 || job.DstWidth <= 0 {
		return errors.New("scale: empty destination")
	}
	if len(job.YLookup) < job.DstHeight || len(job.XLookup) < job.DstWidth {
		return errors.New("scale: lookup tables too small")
	}

	// Publish the job, then bump the sequence. The atomic store orders the
	// job fields before the wake, and the workers' atomic load pairs with
	// it on their side.
	e.job = job
	seq := e.sequence.Load() + 1
	e.done[0].Store(0)
	e.done[1].Store(0)
	e.sequence.Store(seq)

	for i := 0; i < 2; i++ {
		select {
		case e.wake[i] <- struct{}{}:
		default:
		}
	}

	deadline := time.Now().Add(e.waitBudget)
	warned := false
	for e.done[0].Load() != seq || e.done[1].Load() != seq {
		if !warned && time.Now().After(deadline) {
			warned = true
			e.logger.Warn("workers running past frame budget",
				"done_low", e.done[0].Load(), "done_high", e.done[1].Load(), "sequence", seq)
		}
		runtime.Gosched()
	}
	return nil
}

func (e *Engine) worker(index int) {
	// Pinning keeps each worker on its own OS thread so the two halves of
	// a frame really run in parallel.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var lastSeq uint64
	for {
		select {
		case <-e.quit:
			return
		case <-e.wake[index]:
		}

		seq := e.sequence.Load()
		if seq == lastSeq {
			continue // stale wake
		}
		lastSeq = seq

		job := e.job
		mid := job.DstHeight / 2
		if index == 0 {
			scaleRows(job, 0, mid)
		} else {
			scaleRows(job, mid, job.DstHeight)
		}
		e.done[index].Store(seq)
	}
}
