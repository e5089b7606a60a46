package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
	drainTimeout   = 30 * time.Second
)

// Task is a named unit of detached background work: a superseded-token
// invalidation or an orphaned-guest cleanup.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes fire-and-forget tasks on a fixed worker pool. Failures
// are logged with the task name; they never reach the request that
// submitted the work. Stop drains queued tasks before returning so shutdown
// does not silently drop cleanup.
type Runner struct {
	tasks   chan Task
	log     zerolog.Logger
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewRunner creates a Runner with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewRunner(numWorkers int, log zerolog.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		tasks:   make(chan Task, channelBuffer),
		log:     log,
		baseCtx: ctx,
		cancel:  cancel,
	}
	for i := 0; i < numWorkers; i++ {
		r.wg.Add(1)
		go r.runWorker(i)
	}
	return r
}

// Submit enqueues a task. Non-blocking up to channelBuffer capacity; beyond
// that the task is dropped and the drop is logged severely, since losing
// cleanup is a leak rather than a correctness violation. After Stop,
// submissions are dropped the same way: a request abandoned during shutdown
// may still try to schedule cleanup.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Error().Str("task", name).Msg("background queue stopped, task dropped")
		return
	}
	select {
	case r.tasks <- Task{Name: name, Run: fn}:
	default:
		r.log.Error().Str("task", name).Msg("background queue full, task dropped")
	}
}

// Stop closes the queue and waits for queued tasks to finish, up to
// drainTimeout. Safe to call more than once.
func (r *Runner) Stop() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.tasks)
		r.mu.Unlock()
		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(drainTimeout):
			r.log.Error().Msg("background queue drain timed out")
		}
		r.cancel()
	})
}

func (r *Runner) runWorker(id int) {
	defer r.wg.Done()
	for task := range r.tasks {
		if err := task.Run(r.baseCtx); err != nil {
			r.log.Error().Err(err).
				Str("task", task.Name).
				Int("worker_id", id).
				Msg("background task failed")
		}
	}
}
