package lifx

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"go.uber.org/zap"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/lights"
	"github.com/scheerer/led-foot/internal/logging"
)

var logger = logging.New("lifx")

const kelvin = 3500

// LifxLights is a LIFX group that follows the LED strip color.
type LifxLights struct {
	config Config
	client *golifx.Client

	lightsMu sync.RWMutex
	group    common.Group
}

var _ lights.LightService = (*LifxLights)(nil)

type Config struct {
	GroupName     string
	MaxBrightness float64
	MinBrightness float64
}

func NewLifx(ctx context.Context, config Config) (*LifxLights, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, err
	}

	l := &LifxLights{
		config: config,
		client: client,
	}
	go l.Start(ctx)
	return l, nil
}

func (l *LifxLights) Start(ctx context.Context) {
	discoveryInterval := 15 * time.Second
	ticker := time.NewTicker(discoveryInterval)
	defer ticker.Stop()

	l.client.SetDiscoveryInterval(discoveryInterval)

	timeout := 5 * time.Second
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	l.discover(ctxWithTimeout)
	cancel()

	for {
		select {
		case <-ticker.C:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
			l.discover(ctxWithTimeout)
			cancel()
		case <-ctx.Done():
			l.Stop()
			return
		}
	}
}

func (l *LifxLights) Stop() {
	if err := l.client.Close(); err != nil {
		logger.With(zap.Error(err)).Debug("Closing LIFX client")
	}
}

func (l *LifxLights) discover(ctx context.Context) {
	logger.With(zap.String("group", l.config.GroupName)).Debug("LIFX discovery starting...")

	type result struct {
		group common.Group
		err   error
	}
	completed := make(chan result, 1)
	go func() {
		g, err := l.client.GetGroupByLabel(l.config.GroupName)
		completed <- result{group: g, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.With(zap.Error(ctx.Err())).Warn("LIFX discovery timed out.")
	case res := <-completed:
		if res.err != nil || res.group == nil {
			logger.With(zap.Error(res.err)).Warn("Couldn't discover LIFX group")
			return
		}
		l.lightsMu.Lock()
		changed := l.group == nil || l.group.GetLabel() != res.group.GetLabel()
		l.group = res.group
		l.lightsMu.Unlock()
		if changed {
			logger.With(zap.String("group", res.group.GetLabel())).Info("LIFX group found")
		}
	}
}

func (l *LifxLights) LightCount() int {
	l.lightsMu.RLock()
	defer l.lightsMu.RUnlock()

	if l.group == nil {
		return 0
	}
	return len(l.group.Lights())
}

func (l *LifxLights) SetColorWithDuration(ctx context.Context, c color.Color, duration time.Duration) {
	l.lightsMu.RLock()
	group := l.group
	l.lightsMu.RUnlock()
	if group == nil {
		return
	}

	lifxColor := adjustColor(newLifxColor(c), l.config)

	logger.With(zap.Stringer("color", c),
		zap.Any("lifxColor", lifxColor)).
		Debug("Setting LIFX group color")

	if err := group.SetColor(lifxColor, duration); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to set color for LIFX group")
	}
}

// newLifxColor folds the white channel in by raising brightness and washing
// out saturation, since the bulbs have no separate white emitter.
func newLifxColor(c color.Color) common.Color {
	hue, saturation, brightness := c.HSB()
	w := c.Clamp().W

	return common.Color{
		Hue:        hue,
		Saturation: uint16(math.Round(float64(saturation) * (1 - w))),
		Brightness: uint16(math.Max(float64(brightness), math.Round(w*0xFFFF))),
		Kelvin:     kelvin,
	}
}

func adjustColor(c common.Color, config Config) common.Color {
	blackThreshold := 0.015 * 0xFFFF
	if c.Brightness <= uint16(blackThreshold) {
		// blackish color - turn the light down
		return common.Color{Kelvin: kelvin}
	}

	if color.IsGreyish(c.Saturation) {
		// faint tints look wrong on the bulbs, show plain white instead
		c.Saturation = 0
	}

	c.Brightness = uint16(math.Min(config.MaxBrightness*0xFFFF, math.Max(config.MinBrightness*0xFFFF, float64(c.Brightness))))

	return c
}
