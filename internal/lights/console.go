package lights

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/rooms"
)

const swatchWidth = 80

// Console stands in for the controller when no device is attached. Each
// color is drawn as two true color swatches: RGB, then W as grey.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ Link = (*Console)(nil)

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func swatch(r, g, b uint8) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m\n", r, g, b, strings.Repeat("#", swatchWidth))
}

func (c *Console) SetColor(col color.Color) error {
	r, g, b := col.RGB8()
	w := col.W8()

	c.mu.Lock()
	defer c.mu.Unlock()
	// the console is best effort, a broken terminal must not stall playback
	_, _ = io.WriteString(c.out, swatch(r, g, b)+swatch(w, w, w)+"\n")
	return nil
}

func (c *Console) SetRooms(r rooms.Rooms) error {
	parts := make([]string, 0, len(rooms.All))
	for _, room := range rooms.All {
		state := "off"
		if r.Get(room) {
			state = "on"
		}
		parts = append(parts, room.String()+"="+state)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, "Room state update: %s\n", strings.Join(parts, " "))
	return nil
}

func (c *Console) Close() error {
	return nil
}
