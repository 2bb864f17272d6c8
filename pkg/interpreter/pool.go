package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrPoolShutdown is returned when submitting to a pool after Shutdown.
var ErrPoolShutdown = errors.New("worker pool is shut down")

// Pool runs pipeline stages on goroutines. When bounded, at most maxWorkers
// stages run at once and waiting stages are admitted in submission order.
type Pool struct {
	sem     *semaphore.Weighted
	logger  *slog.Logger
	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
}

// stageTask is the work of one pipeline stage.
type stageTask func(state *evalState) error

// stageHandle tracks a submitted stage.
type stageHandle struct {
	id    uuid.UUID
	stage int
	done  chan struct{}
	err   error
}

// NewPool creates a pool; maxWorkers <= 0 means unbounded.
func NewPool(maxWorkers int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Pool{logger: logger}
	if maxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(maxWorkers))
	}
	return p
}

// submit starts task on a fork of state. It blocks while the pool is full.
func (p *Pool) submit(state *evalState, stage int, task stageTask) (*stageHandle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolShutdown
	}
	p.running.Add(1)
	p.mu.Unlock()

	if p.sem != nil {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.running.Done()
			return nil, err
		}
	}
	h := &stageHandle{id: uuid.New(), stage: stage, done: make(chan struct{})}
	taskState := state.fork()
	taskState.worker = true
	go func() {
		defer p.running.Done()
		defer close(h.done)
		if p.sem != nil {
			defer p.sem.Release(1)
		}
		p.logger.Debug("pipeline stage started", "task", h.id, "stage", stage)
		h.err = p.safeInvoke(taskState, task)
		p.logger.Debug("pipeline stage finished", "task", h.id, "stage", stage, "failed", h.err != nil)
	}()
	return h, nil
}

func (p *Pool) safeInvoke(state *evalState, task stageTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(state)
}

// await blocks until every handle completes.
func (p *Pool) await(handles []*stageHandle) {
	for _, h := range handles {
		<-h.done
	}
}

// release gives back the slot of a caller that is itself a stage, so the
// nested stages it is about to submit can run. The returned function
// reacquires the slot.
func (p *Pool) release(state *evalState) func() {
	if !state.worker || p.sem == nil {
		return func() {}
	}
	p.sem.Release(1)
	state.worker = false
	return func() {
		_ = p.sem.Acquire(context.Background(), 1)
		state.worker = true
	}
}

// Shutdown rejects further submissions and waits for running stages.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.running.Wait()
	p.logger.Debug("worker pool shut down")
}
