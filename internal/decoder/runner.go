// internal/decoder/runner.go
package decoder

import (
	"context"
	"time"
)

// Run owns the decoder until ctx is cancelled: one Tick per interval,
// commands in between. Coils are released on exit.
func (d *Decoder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := d.Shutdown(); err != nil {
				d.log.Error("releasing coils on shutdown failed", "err", err)
			}
			return
		case cmd := <-d.cmds:
			d.Handle(cmd)
		case <-ticker.C:
			d.Tick()
		}
	}
}
