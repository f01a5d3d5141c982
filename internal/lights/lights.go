package lights

import (
	"context"
	"time"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/rooms"
)

var logger = logging.New("lights")

// Link is the connection to the LED controller. Implementations are only
// ever driven by the render loop, which keeps writes on the wire serialized.
type Link interface {
	SetColor(c color.Color) error
	SetRooms(r rooms.Rooms) error
	Close() error
}

// LightService is an auxiliary set of lights that follows the LED color.
type LightService interface {
	Start(ctx context.Context)
	Stop()
	LightCount() int
	SetColorWithDuration(ctx context.Context, c color.Color, duration time.Duration)
}
