// Package worker hosts the three long-running poll loops of the DA
// pipeline (IPFS publish, Mintlayer anchor, retention cleanup) and the
// supervisor that runs them together, cancelling the rest the moment any
// one of them returns — the same "first exit wins" shutdown the original
// client got from tokio::select!, reimplemented here over
// golang.org/x/sync/errgroup the way the teacher composes its own
// long-running services.
package worker

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/zk-thunder/da-pipeline/internal/log"
)

// Loop is anything the supervisor can run: block until ctx is cancelled or
// an unrecoverable error occurs.
type Loop interface {
	Run(ctx context.Context) error
}

// Supervisor runs a fixed set of loops concurrently and stops all of them
// as soon as one returns, regardless of cause.
type Supervisor struct {
	loops []Loop
	log   log.Logger
}

// NewSupervisor builds a Supervisor over the given loops.
func NewSupervisor(loops ...Loop) *Supervisor {
	return &Supervisor{loops: loops, log: log.New("component", "supervisor")}
}

// Run blocks until ctx is cancelled or any loop returns; it then cancels the
// others and waits for them to unwind before returning the first non-nil,
// non-context.Canceled error encountered.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	for i, l := range s.loops {
		l := l
		idx := i
		g.Go(func() error {
			defer cancel()
			err := l.Run(gctx)
			if err != nil && gctx.Err() == nil {
				s.log.Error("loop exited, shutting down supervisor", "loop", idx, "err", err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
