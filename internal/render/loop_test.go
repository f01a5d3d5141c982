package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/lights"
	"github.com/scheerer/led-foot/internal/rooms"
	"github.com/scheerer/led-foot/internal/sequence"
	"github.com/scheerer/led-foot/internal/state"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) bool {
	c.advance(d)
	return true
}

type recordingLink struct {
	mu     sync.Mutex
	frames []color.Color
	rooms  []rooms.Rooms
	err    error
	// cost simulates how long the write for frame i takes
	cost  func(i int) time.Duration
	clock *fakeClock
	panic bool
}

func (l *recordingLink) SetColor(c color.Color) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.panic {
		panic("link exploded")
	}
	if l.cost != nil {
		l.clock.advance(l.cost(len(l.frames)))
	}
	l.frames = append(l.frames, c)
	return l.err
}

func (l *recordingLink) SetRooms(r rooms.Rooms) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms = append(l.rooms, r)
	return l.err
}

func (l *recordingLink) Close() error { return nil }

func (l *recordingLink) Frames() []color.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]color.Color(nil), l.frames...)
}

func newTestLoop(st *state.State, link *recordingLink) (*Loop, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	link.clock = clock
	l := New(st, link, DefaultConfig(), WithClock(clock.now, clock.sleep))
	return l, clock
}

// drain steps the loop until the state has no sequence left.
func drain(t *testing.T, l *Loop, st *state.State) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		l.step(context.Background())
		if !st.Snapshot().Active() {
			return
		}
	}
	t.Fatal("sequence never finished")
}

func TestLoopPlaysFadeToRed(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l, _ := newTestLoop(st, link)

	red := color.New(1, 0, 0, 0)
	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, red)
	})

	drain(t, l, st)

	frames := link.Frames()
	require.Len(t, frames, sequence.Resolution+1)
	assert.Equal(t, color.Black, frames[0])
	for i := 1; i < len(frames); i++ {
		assert.GreaterOrEqual(t, frames[i].R, frames[i-1].R)
	}
	assert.InDelta(t, 1.0, frames[len(frames)-1].R, 1e-9)

	snap := st.Snapshot()
	assert.Nil(t, snap.Sequence)
	assert.True(t, snap.Color.ApproxEqual(red, 1e-9))
}

func TestLoopIdleWaitsForPoll(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l, _ := newTestLoop(st, link)

	d, done := l.step(context.Background())
	assert.False(t, done)
	assert.Equal(t, DefaultConfig().IdlePoll, d)
	assert.Empty(t, link.Frames())
}

func TestLoopAbsorbsSlowWrite(t *testing.T) {
	st := state.New(color.Black)
	cfg := DefaultConfig()
	interval := cfg.FrameInterval
	const cost = time.Millisecond
	const spike = 10

	link := &recordingLink{cost: func(i int) time.Duration {
		if i == spike {
			return 3 * interval
		}
		return cost
	}}
	l, clock := newTestLoop(st, link)

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(0, 0, 1, 0))
	})

	start := clock.now()
	var sleeps []time.Duration
	var sent []time.Time
	for i := 0; i < sequence.Resolution+1; i++ {
		sent = append(sent, clock.now())
		d, done := l.step(context.Background())
		require.False(t, done)
		sleeps = append(sleeps, d)
		clock.advance(d)
	}

	assert.Equal(t, time.Duration(0), sleeps[spike], "no wait after a slow write")

	lateness := func(i int) time.Duration {
		return sent[i].Sub(start) - time.Duration(i)*interval
	}
	for i := spike + 2; i < spike+4; i++ {
		assert.Less(t, lateness(i), lateness(i-1), "frame %d should catch up", i)
	}
	for i := spike + 4; i < len(sent); i++ {
		assert.LessOrEqual(t, lateness(i), cost, "frame %d", i)
	}

	// a fixed sleep would end up three intervals late; pacing absorbs it
	last := len(sent) - 1
	assert.LessOrEqual(t, lateness(last), cost)
}

func TestLoopInterruptSwitchesWithoutInterleaving(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l, _ := newTestLoop(st, link)

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(1, 0, 0, 0))
	})
	for i := 0; i < 10; i++ {
		l.step(context.Background())
	}
	require.Len(t, link.Frames(), 10)

	var replacement []color.Color
	st.Install(func(current color.Color) *sequence.Sequence {
		seq := sequence.FromColorLerp(current, color.New(0, 0, 1, 0))
		replacement = seq.Frames()
		return seq
	})

	drain(t, l, st)

	frames := link.Frames()
	require.Len(t, frames, 10+len(replacement))
	assert.Equal(t, replacement, frames[10:])
	assert.Equal(t, frames[9], replacement[0], "replacement starts from the last sent color")
}

func TestLoopInterruptWithoutReplacement(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l, _ := newTestLoop(st, link)

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(1, 0, 0, 0))
	})
	for i := 0; i < 5; i++ {
		l.step(context.Background())
	}

	st.RequestInterrupt()
	_, done := l.step(context.Background())
	require.False(t, done)

	snap := st.Snapshot()
	assert.Nil(t, snap.Sequence)
	assert.Len(t, link.Frames(), 5)
	assert.Equal(t, link.Frames()[4], snap.Color)
}

func TestLoopForwardsRoomChanges(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l, _ := newTestLoop(st, link)

	l.step(context.Background())
	assert.Empty(t, link.rooms)

	st.SetRooms(rooms.Only(rooms.Office))
	l.step(context.Background())
	l.step(context.Background())
	require.Len(t, link.rooms, 1)
	assert.Equal(t, rooms.Only(rooms.Office), link.rooms[0])

	st.SetRooms(rooms.Only(rooms.Office))
	l.step(context.Background())
	assert.Len(t, link.rooms, 2, "every set is forwarded")
}

func TestLoopKeepsPlayingWhenLinkFails(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{err: errors.New("unplugged")}
	l, _ := newTestLoop(st, link)

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(0, 1, 0, 0))
	})
	drain(t, l, st)

	assert.Len(t, link.Frames(), sequence.Resolution+1)
	assert.InDelta(t, 1.0, st.Color().G, 1e-9)
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger
	logger = zap.New(core).Sugar()
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestLoopLeavesConfirmationErrorsToLink(t *testing.T) {
	logs := observeLogs(t)

	st := state.New(color.Black)
	link := &recordingLink{err: fmt.Errorf("%w: wanted \"C\\r\\n\"", lights.ErrConfirmation)}
	l, _ := newTestLoop(st, link)

	st.SetRooms(rooms.Only(rooms.Office))
	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(1, 0, 0, 0))
	})
	l.step(context.Background())

	assert.Len(t, link.Frames(), 1)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	link.err = errors.New("unplugged")
	l.step(context.Background())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRunStopsOnShutdown(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{}
	l := New(st, link, Config{FrameInterval: time.Millisecond, IdlePoll: time.Millisecond})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(1, 1, 1, 1))
	})
	st.Shutdown()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	st := state.New(color.Black)
	l := New(st, &recordingLink{}, Config{IdlePoll: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRunReportsPanic(t *testing.T) {
	st := state.New(color.Black)
	link := &recordingLink{panic: true}
	l, _ := newTestLoop(st, link)

	st.Install(func(current color.Color) *sequence.Sequence {
		return sequence.FromColorLerp(current, color.New(1, 0, 0, 0))
	})

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrLoopPanicked)

	// the lock was released on the way out
	assert.True(t, st.Snapshot().Active())
}
