// Package job runs fire-and-forget work on a fixed pool of worker goroutines.
//
// Jobs are taken from a single FIFO queue; submission order is the only
// ordering guarantee. A failing or panicking job is logged and does not
// affect the worker or any other job.
package job

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/errs"
)

// Func is the body of a job. The context is cancelled only when a shutdown
// deadline expires before the queue has drained.
type Func func(ctx context.Context) error

// Job is a queued unit of work.
type Job struct {
	ID        uint64
	Name      string
	Fn        Func
	Submitted time.Time
}

// Config sizes the pool.
type Config struct {
	// ExecutionThreads is the number of workers; 0 means runtime.NumCPU().
	ExecutionThreads int
	// MaxJobs caps the total number of submissions accepted through Submit
	// over the scheduler's lifetime; 0 means unbounded. SubmitUncapped work
	// does not count.
	MaxJobs int
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	Threads   int    `json:"threads"`
	MaxJobs   int    `json:"max_jobs"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Queued    int    `json:"queued"`
	Running   int    `json:"running"`
	Closed    bool   `json:"closed"`
}

// Scheduler is a fixed-size worker pool. All methods are safe for
// concurrent use.
type Scheduler struct {
	threads int
	maxJobs int
	log     *zap.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*Job
	closed    bool
	submitted uint64 // every accepted job, also the last job ID
	capped    uint64 // jobs counted against maxJobs

	running   atomic.Int64
	completed atomic.Uint64
	failed    atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler starts cfg.ExecutionThreads workers.
func NewScheduler(cfg Config, log *zap.Logger) *Scheduler {
	threads := cfg.ExecutionThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxJobs := cfg.MaxJobs
	if maxJobs < 0 {
		maxJobs = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		threads: threads,
		maxJobs: maxJobs,
		log:     log,
		queue:   make([]*Job, 0, 64),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(threads)
	for i := 0; i < threads; i++ {
		go s.worker(i)
	}
	log.Debug("job scheduler started", zap.Int("threads", threads), zap.Int("max_jobs", maxJobs))
	return s
}

func (s *Scheduler) Threads() int { return s.threads }

// Submit enqueues fn without blocking. It fails with a core error when the
// scheduler is shut down or the MaxJobs cap has been reached; in both cases
// nothing is enqueued.
func (s *Scheduler) Submit(name string, fn func(ctx context.Context) error) error {
	return s.submit(name, fn, true)
}

// SubmitUncapped is Submit for engine work such as asset decodes, which
// must not use up the game's MaxJobs budget.
func (s *Scheduler) SubmitUncapped(name string, fn func(ctx context.Context) error) error {
	return s.submit(name, fn, false)
}

func (s *Scheduler) submit(name string, fn func(ctx context.Context) error, capped bool) error {
	const op = "job.submit"
	if fn == nil {
		return errs.Core(op, "nil job %q", name)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		jobsRejected.WithLabelValues(reasonClosed).Inc()
		return errs.Core(op, "scheduler is shut down, %q rejected", name)
	}
	if capped && s.maxJobs > 0 && s.capped >= uint64(s.maxJobs) {
		s.mu.Unlock()
		jobsRejected.WithLabelValues(reasonCap).Inc()
		return errs.Core(op, "job cap of %d reached, %q rejected", s.maxJobs, name)
	}
	if capped {
		s.capped++
	}
	s.submitted++
	j := &Job{
		ID:        s.submitted,
		Name:      name,
		Fn:        fn,
		Submitted: time.Now(),
	}
	s.queue = append(s.queue, j)
	queueDepth.Inc()
	s.mu.Unlock()

	jobsSubmitted.Inc()
	s.cond.Signal()
	return nil
}

// next blocks until a job is available. It returns nil once the scheduler
// is closed and the queue is empty.
func (s *Scheduler) next() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return nil
	}
	j := s.queue[0]
	s.queue[0] = nil
	if len(s.queue) == 1 {
		s.queue = s.queue[:0]
	} else {
		s.queue = s.queue[1:]
	}
	queueDepth.Dec()
	s.running.Add(1)
	return j
}

func (s *Scheduler) worker(n int) {
	defer s.wg.Done()
	for {
		j := s.next()
		if j == nil {
			return
		}
		s.execute(n, j)
		s.running.Add(-1)
	}
}

// execute runs one job with panic recovery so a bad job cannot take down
// its worker.
func (s *Scheduler) execute(worker int, j *Job) {
	start := time.Now()
	status := statusOK
	defer func() {
		if rec := recover(); rec != nil {
			status = statusPanic
			s.log.Error("job panic recovered",
				zap.Uint64("job", j.ID),
				zap.String("name", j.Name),
				zap.Int("worker", worker),
				zap.Any("panic", rec),
			)
		}
		if status != statusOK {
			s.failed.Add(1)
		}
		s.completed.Add(1)
		jobsCompleted.WithLabelValues(status).Inc()
		jobDuration.Observe(time.Since(start).Seconds())
	}()

	if err := j.Fn(s.ctx); err != nil {
		status = statusFailed
		s.log.Error("job failed",
			zap.Uint64("job", j.ID),
			zap.String("name", j.Name),
			zap.Int("worker", worker),
			zap.Error(err),
		)
	}
}

// Shutdown stops accepting jobs and waits for the queue to drain. If ctx
// ends first, the job context is cancelled and ctx's error returned; the
// workers still exit once their current jobs return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	queued := len(s.queue)
	s.mu.Unlock()
	s.cond.Broadcast()
	if !already {
		s.log.Debug("job scheduler draining", zap.Int("queued", queued))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("drain job queue: %w", ctx.Err())
	}
}

// Stats returns current counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	queued, submitted, closed := len(s.queue), s.submitted, s.closed
	s.mu.Unlock()
	return Stats{
		Threads:   s.threads,
		MaxJobs:   s.maxJobs,
		Submitted: submitted,
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
		Queued:    queued,
		Running:   int(s.running.Load()),
		Closed:    closed,
	}
}
