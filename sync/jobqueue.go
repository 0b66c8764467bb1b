package sync

import (
	"context"
	"sync"

	"github.com/perpx/explorer/log"
	"golang.org/x/sync/semaphore"
)

// Job is a unit of work executed by the JobQueue
type Job struct {
	Name    string
	Execute func(ctx context.Context) error
}

// JobQueue runs jobs in the order they were added with at most
// maxConcurrentJobs of them running at the same time. Add never blocks, so
// jobs can enqueue follow up jobs.
type JobQueue struct {
	sem    *semaphore.Weighted
	log    *log.Logger
	mu     sync.Mutex
	queue  []Job
	notify chan struct{}
	wg     sync.WaitGroup
}

// NewJobQueue creates a JobQueue. Call Run to start processing jobs.
func NewJobQueue(maxConcurrentJobs int64, logger *log.Logger) *JobQueue {
	if maxConcurrentJobs < 1 {
		maxConcurrentJobs = 1
	}
	return &JobQueue{
		sem:    semaphore.NewWeighted(maxConcurrentJobs),
		log:    logger,
		notify: make(chan struct{}, 1),
	}
}

// Add appends a job at the end of the queue
func (q *JobQueue) Add(job Job) {
	q.mu.Lock()
	q.queue = append(q.queue, job)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of jobs waiting to be started
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Run starts jobs until ctx is done and then waits for the running ones.
// Jobs still queued at that point are dropped.
func (q *JobQueue) Run(ctx context.Context) {
	defer q.wg.Wait()
	for {
		job, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.notify:
				continue
			}
		}
		if err := q.sem.Acquire(ctx, 1); err != nil {
			return
		}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			defer q.sem.Release(1)
			if err := job.Execute(ctx); err != nil {
				q.log.Errorf("job %s failed: %v", job.Name, err)
			}
		}()
	}
}

func (q *JobQueue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return Job{}, false
	}
	job := q.queue[0]
	q.queue[0] = Job{}
	q.queue = q.queue[1:]
	return job, true
}
