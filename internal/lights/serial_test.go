package lights

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/rooms"
)

// fakePort replays scripted controller replies and records what was written.
// Reads past the script fail the way a timed out port does.
type fakePort struct {
	replies bytes.Buffer
	written bytes.Buffer
	closed  bool
}

func newFakePort(replies ...string) *fakePort {
	p := &fakePort{}
	p.replies.WriteString(strings.Join(replies, ""))
	return p
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.replies.Len() == 0 {
		return 0, io.EOF
	}
	return p.replies.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.closed {
		return 0, errors.New("port closed")
	}
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) frames(t *testing.T) [][FrameSize]byte {
	t.Helper()
	raw := p.written.Bytes()
	require.Zero(t, len(raw)%FrameSize, "partial frame written")
	out := make([][FrameSize]byte, 0, len(raw)/FrameSize)
	for i := 0; i < len(raw); i += FrameSize {
		var f [FrameSize]byte
		copy(f[:], raw[i:])
		out = append(out, f)
	}
	return out
}

func TestSerialHandshake(t *testing.T) {
	port := newFakePort("I\r\n", "C\r\n")
	var console bytes.Buffer
	link := NewSerial("fake", port, NewConsole(&console))

	assert.False(t, link.Mocked())
	assert.Equal(t, [][FrameSize]byte{EncodeColor(color.Black)}, port.frames(t))
	assert.Empty(t, console.String())
}

func TestSerialHandshakeMismatchFallsBack(t *testing.T) {
	port := newFakePort("X\r\n")
	var console bytes.Buffer
	link := NewSerial("fake", port, NewConsole(&console))

	assert.True(t, link.Mocked())
	assert.True(t, port.closed)
	assert.Empty(t, port.frames(t))

	require.NoError(t, link.SetColor(color.New(1, 0, 0, 0)))
	assert.Contains(t, console.String(), "\x1b[38;2;255;0;0m")
}

func TestSerialHandshakeTimeoutFallsBack(t *testing.T) {
	port := newFakePort("I\r\n")
	link := NewSerial("fake", port, NewConsole(io.Discard))
	assert.True(t, link.Mocked())
}

func TestSerialColorAndRooms(t *testing.T) {
	port := newFakePort("I\r\n", "C\r\n", "C\r\n", "R\r\n")
	link := NewSerial("fake", port, NewConsole(io.Discard))
	require.False(t, link.Mocked())

	c := color.New(0.25, 0.5, 0.75, 1)
	require.NoError(t, link.SetColor(c))
	require.NoError(t, link.SetRooms(rooms.Only(rooms.Bedroom)))

	frames := port.frames(t)
	require.Len(t, frames, 3)
	assert.Equal(t, EncodeColor(c), frames[1])
	assert.Equal(t, EncodeRooms(rooms.Only(rooms.Bedroom)), frames[2])
	assert.False(t, link.Mocked())
}

func TestSerialMismatchIsNotFatal(t *testing.T) {
	port := newFakePort("I\r\n", "C\r\n", "R\r\n", "C\r\n")
	link := NewSerial("fake", port, NewConsole(io.Discard))

	err := link.SetColor(color.New(1, 1, 1, 1))
	assert.ErrorIs(t, err, ErrConfirmation)
	assert.False(t, link.Mocked())

	assert.NoError(t, link.SetColor(color.New(0, 0, 0, 1)))
}

func TestSerialIOFailureFallsBack(t *testing.T) {
	port := newFakePort("I\r\n", "C\r\n")
	var console bytes.Buffer
	link := NewSerial("fake", port, NewConsole(&console))

	err := link.SetColor(color.New(0, 1, 0, 0))
	assert.Error(t, err)
	assert.True(t, link.Mocked())
	assert.True(t, port.closed)

	require.NoError(t, link.SetColor(color.New(0, 0, 1, 0)))
	require.NoError(t, link.SetRooms(rooms.Only(rooms.Office)))
	assert.Contains(t, console.String(), "\x1b[38;2;0;0;255m")
	assert.Contains(t, console.String(), "office=on")
	assert.NoError(t, link.Close())
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	require.NoError(t, c.SetColor(color.New(1, 0.5, 0, 0.2)))
	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "\x1b[38;2;255;128;0m"+strings.Repeat("#", 80)+"\x1b[0m", lines[0])
	assert.Equal(t, "\x1b[38;2;51;51;51m"+strings.Repeat("#", 80)+"\x1b[0m", lines[1])

	out.Reset()
	require.NoError(t, c.SetRooms(rooms.Rooms{LivingRoom: true}))
	assert.Equal(t, "Room state update: living_room=on office=off bedroom=off\n", out.String())
}
