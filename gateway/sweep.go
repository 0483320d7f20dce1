package gateway

import (
	"context"
	"time"
)

// RunSweeper periodically prunes rate windows whose reset deadline has
// passed. Dedupe entries age out via their own TTL; lock entries remove
// themselves on release. Expects to be run in a goroutine; returns when ctx
// is done.
func (g *Gateway) RunSweeper(ctx context.Context) error {
	interval := g.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed := g.limiter.Sweep()
			sweptWindowCount.Add(float64(removed))
			if removed > 0 {
				g.logger.Debug("swept expired rate windows", "removed", removed)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
