// Package scheduler runs the periodic maintenance pass a Chord node
// needs once it has joined a ring: a single background task that
// drives fix_fingers, stabilize+notify, and check_predecessor, in that
// strict order, once per tick.
package scheduler

import (
	"context"
	"time"

	"chorddht/internal/chord"
	"chorddht/internal/config"
	"chorddht/internal/logger"
)

// Scheduler owns the single maintenance goroutine for a node.
type Scheduler struct {
	node *chord.Node
	lgr  logger.Logger
	mcfg config.MaintenanceConfig
}

func New(node *chord.Node, lgr logger.Logger, mcfg config.MaintenanceConfig) *Scheduler {
	return &Scheduler{node: node, lgr: lgr, mcfg: mcfg}
}

// Start launches the maintenance loop in its own goroutine. It stops
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// run ticks at the configured maintenance interval and, on every tick,
// runs fix_fingers, then stabilize+notify, then check_predecessor, in
// that order and on a single goroutine: no round starts before the
// previous one has fully finished, and no two tasks within a round ever
// run concurrently with each other.
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.mcfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.lgr.Info("maintenance loop stopped")
			return
		case <-ticker.C:
			s.runRound(ctx)
		}
	}
}

func (s *Scheduler) runRound(ctx context.Context) {
	if err := s.node.FixFingers(ctx); err != nil {
		s.lgr.Debug("fix_fingers failed", logger.F("err", err.Error()))
	}
	if err := s.node.Stabilize(ctx); err != nil {
		s.lgr.Debug("stabilize failed", logger.F("err", err.Error()))
	} else if err := s.node.NotifySuccessor(ctx); err != nil {
		s.lgr.Debug("notify failed", logger.F("err", err.Error()))
	}
	if err := s.node.CheckPredecessor(ctx); err != nil {
		s.lgr.Debug("check_predecessor failed", logger.F("err", err.Error()))
	}
}
