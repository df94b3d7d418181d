package allotment

import (
	"context"

	"github.com/oshokin/room-allotment/internal/logger"
)

// saveCheckpoint mirrors the run to the checkpoint, or removes it when idle.
// Failures are logged; the checkpoint only serves crash detection.
func (s *Service) saveCheckpoint(ctx context.Context) {
	if s.checkpoint == nil {
		return
	}

	snapshot := s.Snapshot()

	if !snapshot.InProgress {
		if err := s.checkpoint.Clear(ctx); err != nil {
			logger.ErrorKV(ctx, "Failed to clear run checkpoint", "error", err)
		}

		return
	}

	if err := s.checkpoint.Save(ctx, snapshot); err != nil {
		logger.ErrorKV(ctx, "Failed to save run checkpoint", "error", err)
	}
}
