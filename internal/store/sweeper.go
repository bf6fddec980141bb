package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunSweeper closes rooms idle for longer than ttl, checking every ttl/2,
// until ctx is done.
func RunSweeper(ctx context.Context, s Store, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(max(ttl/2, time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if ids := s.Sweep(ctx, now.Add(-ttl)); len(ids) > 0 {
				log.Info().Int("swept", len(ids)).Int("live", s.Len()).Msg("idle rooms closed")
			}
		}
	}
}
