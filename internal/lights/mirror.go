package lights

import (
	"context"
	"time"

	"github.com/scheerer/led-foot/internal/color"
)

// Mirror forwards the most recent color to a LightService at a fixed
// interval. Offer never blocks, so the render loop is never held up by a slow
// network light; colors offered between ticks are coalesced.
type Mirror struct {
	svc      LightService
	interval time.Duration
	latest   chan color.Color
}

func NewMirror(svc LightService, interval time.Duration) *Mirror {
	return &Mirror{
		svc:      svc,
		interval: interval,
		latest:   make(chan color.Color, 1),
	}
}

// Offer replaces any color still waiting to be sent. It has a single caller.
func (m *Mirror) Offer(c color.Color) {
	select {
	case m.latest <- c:
		return
	default:
	}
	select {
	case <-m.latest:
	default:
	}
	select {
	case m.latest <- c:
	default:
	}
}

// Run sends pending colors until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var pending, last color.Color
	var dirty, sent bool

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-m.latest:
			pending = c
			dirty = !sent || c != last
		case <-ticker.C:
			if !dirty || m.svc.LightCount() == 0 {
				continue
			}
			m.svc.SetColorWithDuration(ctx, pending, m.interval)
			last, sent, dirty = pending, true, false
		}
	}
}
