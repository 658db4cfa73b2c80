package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/vocalcut/internal/types"
)

var (
	ErrQueueFull = errors.New("worker: job queue is full")
	ErrStopped   = errors.New("worker: pool is stopped")
)

// Job is one pipeline run. Run must honour ctx.
type Job struct {
	ID  string
	Ctx context.Context
	Run func(ctx context.Context) types.Result
}

// Handle is the caller's side of a submitted job.
type Handle struct {
	ID   string
	done chan struct{}
	res  types.Result
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the job finishes or ctx ends. Giving up on the wait
// does not stop the job; cancel the job's own context for that.
func (h *Handle) Wait(ctx context.Context) (types.Result, error) {
	select {
	case <-h.done:
		return h.res, nil
	case <-ctx.Done():
		return types.Result{}, ctx.Err()
	}
}

type task struct {
	job    Job
	handle *Handle
}

// Pool runs jobs on a fixed set of goroutines fed by a bounded queue.
type Pool struct {
	queue chan task
	wg    sync.WaitGroup
	log   *logrus.Entry

	mu      sync.RWMutex
	stopped bool
}

func NewPool(workers, queueSize int, log *logrus.Entry) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &Pool{
		queue: make(chan task, queueSize),
		log:   log,
	}
	for i := 1; i <= workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	log.WithField("workers", workers).Debug("worker pool started")
	return p
}

// Submit enqueues job without blocking. A full queue is reported, never
// dropped silently.
func (p *Pool) Submit(job Job) (*Handle, error) {
	if job.Run == nil {
		return nil, errors.New("worker: job has no Run func")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	h := &Handle{ID: job.ID, done: make(chan struct{})}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return nil, ErrStopped
	}
	select {
	case p.queue <- task{job: job, handle: h}:
		p.log.WithField("job_id", job.ID).Debug("job queued")
		return h, nil
	default:
		return nil, fmt.Errorf("%w (job %s)", ErrQueueFull, job.ID)
	}
}

// Stop refuses new jobs, lets queued and running jobs finish, and waits
// for every worker to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		log := p.log.WithFields(logrus.Fields{"worker": id, "job_id": t.job.ID})
		log.Debug("job started")
		t.handle.res = runSafely(t.job)
		if t.handle.res.OK() {
			log.Debug("job finished")
		} else {
			log.WithField("kind", t.handle.res.Failure.Kind).Debug("job failed")
		}
		close(t.handle.done)
	}
}

func runSafely(job Job) (res types.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = types.Result{Failure: &types.Failure{
				Stage:   types.StageRun,
				Kind:    types.KindInternal,
				Message: fmt.Sprintf("job %s panicked: %v", job.ID, r),
			}}
		}
	}()
	return job.Run(job.Ctx)
}
