package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/lights"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/rooms"
	"github.com/scheerer/led-foot/internal/sequence"
	"github.com/scheerer/led-foot/internal/state"
)

var logger = logging.New("render")

// ErrLoopPanicked ends Run when an iteration panics. The process should be
// restarted by its supervisor.
var ErrLoopPanicked = errors.New("render loop panicked")

type Config struct {
	FrameInterval time.Duration
	IdlePoll      time.Duration
}

func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / sequence.Resolution,
		IdlePoll:      10 * time.Millisecond,
	}
}

// Loop is the only writer to the hardware link. Each iteration it takes the
// next frame of the active sequence from the shared state, sends it, and
// sleeps until the next frame is due.
type Loop struct {
	state  *state.State
	link   lights.Link
	mirror *lights.Mirror
	cfg    Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	// owned by the Run goroutine
	playing   *sequence.Sequence
	started   time.Time
	frames    int
	roomsSeen uint64
}

type Option func(*Loop)

// WithMirror also offers every frame to an auxiliary light mirror.
func WithMirror(m *lights.Mirror) Option {
	return func(l *Loop) { l.mirror = m }
}

// WithClock replaces the wall clock and the sleep between frames.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) bool) Option {
	return func(l *Loop) {
		l.now = now
		l.sleep = sleep
	}
}

func New(st *state.State, link lights.Link, cfg Config, opts ...Option) *Loop {
	def := DefaultConfig()
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if cfg.IdlePoll <= 0 {
		cfg.IdlePoll = def.IdlePoll
	}

	l := &Loop{
		state: st,
		link:  link,
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run plays sequences until the state is shut down or ctx is done.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.With(zap.Any("panic", r)).Error("Render loop stopped unexpectedly")
			err = fmt.Errorf("%w: %v", ErrLoopPanicked, r)
		}
	}()

	logger.With(zap.Duration("frameInterval", l.cfg.FrameInterval)).Info("Render loop started")
	for {
		d, done := l.step(ctx)
		if done || !l.sleep(ctx, d) {
			logger.Info("Render loop stopped")
			return nil
		}
	}
}

// step runs one iteration and returns how long to wait before the next one.
func (l *Loop) step(ctx context.Context) (time.Duration, bool) {
	var (
		frame        color.Color
		hasFrame     bool
		shutdown     bool
		roomsChanged bool
		currentRooms rooms.Rooms
	)

	l.state.Update(func(tx *state.Tx) {
		if tx.ShuttingDown() {
			shutdown = true
			return
		}

		if v := tx.RoomsVersion(); v != l.roomsSeen {
			l.roomsSeen = v
			currentRooms = tx.Rooms()
			roomsChanged = true
		}

		// an interrupt with no replacement installed yet still drops the
		// sequence being played
		if tx.TakeInterrupt() && l.playing != nil && tx.Sequence() == l.playing {
			logger.With(zap.String("sequence", l.playing.Name)).Debug("Sequence interrupted")
			tx.SetSequence(nil)
		}

		seq := tx.Sequence()
		if seq != l.playing {
			l.begin(seq)
		}
		if seq == nil {
			return
		}

		c, err := seq.Next()
		if err != nil {
			logger.With(zap.String("sequence", seq.Name), zap.Int("frames", l.frames)).Debug("Sequence finished")
			tx.SetSequence(nil)
			l.begin(nil)
			return
		}
		tx.SetColor(c)
		frame, hasFrame = c, true
	})

	if shutdown || ctx.Err() != nil {
		return 0, true
	}

	if roomsChanged {
		if err := l.link.SetRooms(currentRooms); linkFailed(err) {
			logger.With(zap.Error(err)).Error("Failed to send rooms")
		}
	}

	if !hasFrame {
		return l.cfg.IdlePoll, false
	}

	logger.Debugf("%d - %v", l.frames, frame)
	if err := l.link.SetColor(frame); linkFailed(err) {
		logger.With(zap.Int("frame", l.frames), zap.Error(err)).Error("Failed to send color")
	}
	if l.mirror != nil {
		l.mirror.Offer(frame)
	}

	d := NextSleep(l.cfg.FrameInterval, l.frames, l.now().Sub(l.started))
	l.frames++
	return d, false
}

// linkFailed reports errors the link has not already logged. A wrong
// confirmation is logged by the link itself.
func linkFailed(err error) bool {
	return err != nil && !errors.Is(err, lights.ErrConfirmation)
}

// begin resets the pacing for a newly observed sequence (or for idle).
func (l *Loop) begin(seq *sequence.Sequence) {
	l.playing = seq
	l.started = l.now()
	l.frames = 0
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
