package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/rooms"
	"github.com/scheerer/led-foot/internal/sequence"
	"github.com/scheerer/led-foot/internal/state"
)

var logger = logging.New("control")

var ErrSequenceNotFound = errors.New("sequence not found")

// Controller is the entry point for everything that changes what the lights
// do: API handlers, the scheduler and the preview CLI. Every change goes
// through the shared state; nothing here talks to hardware.
type Controller struct {
	state *state.State
	dir   string
}

func New(st *state.State, sequenceDir string) *Controller {
	return &Controller{state: st, dir: sequenceDir}
}

// SetColor fades from the current color to c.
func (c *Controller) SetColor(col color.Color) {
	col = col.Clamp()
	logger.With(zap.Stringer("color", col)).Info("Setting color")
	c.state.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, col)
	})
}

// SetSequence plays the sequence file called name from the sequence
// directory. See Find for how names are matched.
func (c *Controller) SetSequence(name string) (sequence.Info, error) {
	path, err := c.Find(name)
	if err != nil {
		return sequence.Info{}, err
	}
	return c.SetSequenceFile(path)
}

// SetSequenceFile plays a gradient image or breakpoint file from any path.
func (c *Controller) SetSequenceFile(path string) (sequence.Info, error) {
	_, src, err := sequence.Open(path)
	if err != nil {
		return sequence.Info{}, err
	}
	info := c.install(src)
	logger.With(zap.String("sequence", info.Name), zap.String("path", path)).Info("Playing sequence")
	return info, nil
}

// SetBreakpoints plays a breakpoint document supplied directly, e.g. in a
// request body.
func (c *Controller) SetBreakpoints(data []byte) (sequence.Info, error) {
	info, points, percents, err := sequence.ParseBreakpoints(data)
	if err != nil {
		return sequence.Info{}, err
	}
	src, err := sequence.PrepareBreakpoints(points, percents, info)
	if err != nil {
		return sequence.Info{}, err
	}
	info = c.install(src)
	logger.With(zap.String("sequence", info.Name)).Info("Playing breakpoints")
	return info, nil
}

// FadeOut fades the current color to black over d.
func (c *Controller) FadeOut(d time.Duration) {
	logger.With(zap.Duration("duration", d)).Info("Fading out")
	c.state.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FadeToBlack(current, d)
	})
}

// install swaps in the sequence src finishes from the current color. Only the
// fade in is built while the state is locked.
func (c *Controller) install(src sequence.Source) sequence.Info {
	var info sequence.Info
	c.state.Install(func(current color.Color) *sequence.Sequence {
		seq := src(current)
		info = seq.Info
		return seq
	})
	return info
}

func (c *Controller) SetRooms(r rooms.Rooms) {
	logger.With(zap.Any("rooms", r)).Info("Setting rooms")
	c.state.SetRooms(r)
}

// SetActiveOnly switches room r on and every other room off.
func (c *Controller) SetActiveOnly(r rooms.Room) {
	c.SetRooms(rooms.Only(r))
}

// ApplyScheduledRooms merges a partial room update into the current rooms.
func (c *Controller) ApplyScheduledRooms(s rooms.Scheduled) rooms.Rooms {
	merged := c.state.MergeRooms(s)
	logger.With(zap.Any("rooms", merged)).Info("Applied scheduled rooms")
	return merged
}

type Status struct {
	Color    color.Color `json:"color"`
	RGB      string      `json:"rgb"`
	White    string      `json:"white"`
	Sequence string      `json:"sequence,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	Rooms    rooms.Rooms `json:"rooms"`
	Active   bool        `json:"active"`
}

func newStatus(snap state.Snapshot) Status {
	st := Status{
		Color:  snap.Color,
		RGB:    snap.Color.RGBCSS(),
		White:  snap.Color.WhiteCSS(),
		Rooms:  snap.Rooms,
		Active: snap.Active(),
	}
	if snap.Sequence != nil {
		st.Sequence = snap.Sequence.Name
		st.Kind = snap.Sequence.Kind.String()
	}
	return st
}

func (c *Controller) Status() Status {
	return newStatus(c.state.Snapshot())
}

// WaitForChange blocks until the color changes or ctx is done and returns the
// status at that point.
func (c *Controller) WaitForChange(ctx context.Context) (Status, error) {
	select {
	case <-c.state.Changed():
		return c.Status(), nil
	case <-ctx.Done():
		return c.Status(), ctx.Err()
	}
}

// Find resolves a sequence name to a file in the sequence directory. A name
// matches a file with that exact name, that name without extension, or whose
// metadata name equals it.
func (c *Controller) Find(name string) (string, error) {
	entries, err := c.files()
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		base := filepath.Base(e)
		if base == name || strings.TrimSuffix(base, filepath.Ext(base)) == name {
			return e, nil
		}
	}
	for _, e := range entries {
		info, err := sequence.Describe(e)
		if err != nil {
			continue
		}
		if info.Name == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSequenceNotFound, name)
}

// ListSequences describes every readable sequence file, sorted by name.
func (c *Controller) ListSequences() ([]sequence.Info, error) {
	entries, err := c.files()
	if err != nil {
		return nil, err
	}

	infos := make([]sequence.Info, 0, len(entries))
	for _, e := range entries {
		info, err := sequence.Describe(e)
		if err != nil {
			logger.With(zap.String("path", e), zap.Error(err)).Warn("Skipping sequence file")
			continue
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// files lists supported sequence files in directory order.
func (c *Controller) files() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sequence dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !sequence.Supported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(c.dir, e.Name()))
	}
	return out, nil
}
