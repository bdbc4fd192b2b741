package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Stopper runs worker goroutines that share one cancellation context.
type Stopper struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStopper derives the workers' context from ctx; its deadline or
// cancellation stops them too.
func NewStopper(ctx context.Context) *Stopper {
	ctx, cancel := context.WithCancel(ctx)
	return &Stopper{
		ctx:    ctx,
		cancel: cancel,
	}
}

// RunWorker starts f in a new goroutine. f should return once ctx is done.
func (s *Stopper) RunWorker(f func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f(s.ctx)
	}()
}

// StopOnSignal closes the stopper when one of sigs arrives. The watch ends
// with the stopper.
func (s *Stopper) StopOnSignal(sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
}

// ShouldStop returns a channel closed once the stopper is stopped.
func (s *Stopper) ShouldStop() <-chan struct{} {
	return s.ctx.Done()
}

// Wait blocks until all workers returned.
func (s *Stopper) Wait() {
	s.wg.Wait()
}

// Stop signals all workers to stop and waits for them.
func (s *Stopper) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Close signals all workers to stop without waiting.
func (s *Stopper) Close() {
	s.cancel()
}
