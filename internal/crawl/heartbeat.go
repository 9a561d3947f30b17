package crawl

import (
	"context"
	"log/slog"
	"time"
)

// runHeartbeat logs progress every interval until ctx ends. A non-positive interval disables it.
func runHeartbeat(ctx context.Context, interval time.Duration, p *progress, logger *slog.Logger) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w, f, rows := p.snapshot()
			logger.Info("heartbeat", "done", w+f, "total", p.total, "written", w, "failed", f, "rows", rows)
		}
	}
}
