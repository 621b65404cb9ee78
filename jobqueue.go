package pstrsort

import (
	"sync"

	"github.com/sarang2dan/parallel-string-sorting/internal/heap"
)

// jobFunc is a unit of work. It receives the queue so it can enqueue
// child jobs (the job-queue equivalent of the teacher's
// SortingFunction, which receives the ThreadPool for the same reason).
type jobFunc func(q *JobQueue)

type job struct {
	size int // estimated subproblem size, used to bias dispatch order
	fn   jobFunc
}

// JobQueue is a bag of pending jobs with work-sharing support: it
// tracks how many workers are currently idle (HasIdle) so a running
// job can decide whether to export part of its own pending work, and
// it detects quiescence (Loop returns once every enqueued job, and
// every job transitively enqueued by it, has finished).
//
// Larger jobs are dispatched before smaller ones when more than one
// is pending, which keeps every worker saturated as early as possible
// in the recursion instead of leaving them idle while one worker
// grinds through a single huge subproblem — see DESIGN.md for why
// this uses the corpus's generic slice-heap instead of container/heap.
type JobQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	pending     []job
	outstanding int // jobs enqueued but not yet finished (pending + running)
	idle        int // workers currently blocked waiting for work
	threads     int
	err         error
	cancelled   bool
}

func jobLess(a, b job) bool { return a.size > b.size }

// NewJobQueue creates a queue that will run jobs across the given
// number of worker goroutines once Loop is called.
func NewJobQueue(threads int) *JobQueue {
	if threads < 1 {
		threads = 1
	}
	q := &JobQueue{threads: threads}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue inserts a job of the given estimated size. Safe to call
// from any worker goroutine, including from inside a running job.
func (q *JobQueue) Enqueue(size int, fn jobFunc) {
	q.mu.Lock()
	if q.cancelled {
		q.mu.Unlock()
		return
	}
	q.outstanding++
	heap.PushSlice(&q.pending, job{size: size, fn: fn}, jobLess)
	q.cond.Signal()
	q.mu.Unlock()
}

// HasIdle reports whether at least one worker is currently blocked
// waiting for work. A running job polls this to decide whether a
// work-sharing hand-off is worthwhile right now.
func (q *JobQueue) HasIdle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle > 0
}

// Loop starts the worker pool and blocks until the queue is empty and
// no job is executing, i.e. the transitive closure of all enqueued
// jobs has finished. It returns the first panic surfaced by any job,
// wrapped as a *SortPanic, or nil on success.
func (q *JobQueue) Loop() error {
	var wg sync.WaitGroup
	wg.Add(q.threads)
	for i := 0; i < q.threads; i++ {
		go func() {
			defer wg.Done()
			q.worker()
		}()
	}
	wg.Wait()
	return q.err
}

func (q *JobQueue) worker() {
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && q.outstanding > 0 {
			q.idle++
			q.cond.Wait()
			q.idle--
		}
		if q.outstanding == 0 {
			q.mu.Unlock()
			return
		}
		j := heap.PopSlice(&q.pending, jobLess)
		q.mu.Unlock()

		q.runOne(j)
	}
}

func (q *JobQueue) runOne(j job) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			if q.err == nil {
				q.err = &SortPanic{Cause: r}
			}
			// A job failed: abandon everything still pending so Loop
			// can drain to quiescence quickly instead of grinding
			// through a now-meaningless recursion.
			q.cancelled = true
			q.outstanding -= len(q.pending)
			q.pending = nil
			q.mu.Unlock()
		}
		q.mu.Lock()
		q.outstanding--
		q.cond.Broadcast()
		q.mu.Unlock()
	}()
	j.fn(q)
}
