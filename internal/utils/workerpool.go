package utils

import (
	"context"
	"sync"
)

// Worker processes one submitted item. Errors are the worker's own business;
// the pool only tracks that the item settled.
type Worker[T any] func(ctx context.Context, item T)

// Pool is a bounded worker pool fed incrementally through Submit.
// Wait blocks until every submitted item has settled.
type Pool[T any] struct {
	workers  int
	tasks    chan T
	worker   Worker[T]
	wg       sync.WaitGroup // running workers
	pending  sync.WaitGroup // submitted but not settled
	startOne sync.Once
	stopOnce sync.Once
}

// NewPool creates a new worker pool
func NewPool[T any](workers int, worker Worker[T]) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[T]{
		workers: workers,
		tasks:   make(chan T, workers*2),
		worker:  worker,
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (p *Pool[T]) Start(ctx context.Context) {
	p.startOne.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.runWorker(ctx)
		}
	})
}

// runWorker drains the queue until it is closed. Once ctx is done, items are
// settled without running so Submit and Wait never block forever.
func (p *Pool[T]) runWorker(ctx context.Context) {
	defer p.wg.Done()

	for item := range p.tasks {
		if ctx.Err() == nil {
			p.worker(ctx, item)
		}
		p.pending.Done()
	}
}

// Submit queues an item, blocking while the queue is full.
func (p *Pool[T]) Submit(item T) {
	p.pending.Add(1)
	p.tasks <- item
}

// Wait blocks until every item submitted so far has settled
func (p *Pool[T]) Wait() {
	p.pending.Wait()
}

// Stop closes the queue and waits for the workers to exit
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}
