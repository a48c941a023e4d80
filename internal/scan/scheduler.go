package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Trigger starts one scan.
type Trigger interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler triggers a full rescan on a fixed interval. Overlap is handled by
// the orchestrator's single-flight guard.
type Scheduler struct {
	Scanner  Trigger
	Interval time.Duration
}

func (s *Scheduler) Run(ctx context.Context) {
	if s.Scanner == nil || s.Interval <= 0 {
		return
	}

	// Run immediately at startup.
	s.runOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.Scanner.Run(ctx); err != nil {
		if errors.Is(err, ErrScanInProgress) {
			slog.Debug("scheduled scan skipped, scan already running")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("scheduled scan failed", "err", err)
	}
}
