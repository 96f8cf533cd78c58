package kitchen

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Pool supervises a fixed set of workers. Workers start sequentially: each
// one must signal that its consumer is registered before the next is
// started, and a worker that fails its initial setup aborts pool startup
// entirely.
type Pool struct {
	count     int
	newWorker func(id int) *Worker
	log       *zap.Logger
}

func NewPool(count int, newWorker func(id int) *Worker, log *zap.Logger) *Pool {
	return &Pool{count: count, newWorker: newWorker, log: log}
}

// Run blocks until ctx is canceled and every worker has returned, or until
// startup fails.
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, p.count)
	var wg sync.WaitGroup

	for i := 1; i <= p.count; i++ {
		w := p.newWorker(i)
		ready := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx, ready); err != nil {
				errCh <- err
			}
		}()

		select {
		case <-ready:
			p.log.Info("worker ready", zap.Int("worker", i))
		case err := <-errCh:
			cancel()
			wg.Wait()
			return fmt.Errorf("worker pool startup aborted: %w", err)
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}
	}
	p.log.Info("all workers running", zap.Int("count", p.count))

	wg.Wait()
	return nil
}
