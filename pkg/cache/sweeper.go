// The expiring cache reclaims memory for never-read-again entries only when Cleanup runs, and it
// deliberately doesn't schedule that itself. StartSweeper is the companion scheduler: a goroutine
// owned by the caller through its context that runs Cleanup at a fixed interval.

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/calque/recall/pkg/utils"
)

// StartSweeper launches a goroutine that calls Cleanup on the cache every interval until ctx is
// done. Cancel the context to stop the sweeper, or it will keep the cache reachable forever.
func StartSweeper[K comparable, V any](ctx context.Context, c *Expiring[K, V], interval time.Duration) {
	if interval <= 0 {
		utils.RaiseInvariant("sweeper", "non_positive_interval",
			"Invalid sweep interval has been given to cache sweeper.", "interval", interval)
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := c.Cleanup(); removed > 0 {
					slog.Debug("Swept expired cache entries.", "removed", removed)
				}
			}
		}
	}()
}
