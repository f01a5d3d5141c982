package lights

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/rooms"
)

const (
	// FrameSize is the length of every command sent to the controller.
	FrameSize = 9

	ColorCmd byte = 0xC0
	RoomCmd  byte = 0xF0

	LivingRoomMagic byte = 0x1A
	OfficeMagic     byte = 0x1C
	BedroomMagic    byte = 0x18
)

// Replies sent by the controller.
var (
	InitReply  = []byte("I\r\n")
	ColorReply = []byte("C\r\n")
	RoomReply  = []byte("R\r\n")
)

var (
	ErrConfirmation = errors.New("unexpected confirmation")
	ErrBadFrame     = errors.New("bad frame")
)

// roomMagic is indexed by relay slot.
var roomMagic = [...]byte{
	rooms.LivingRoom: LivingRoomMagic,
	rooms.Office:     OfficeMagic,
	rooms.Bedroom:    BedroomMagic,
}

func to16(x float64) uint16 {
	return uint16(math.Round(x * math.MaxUint16))
}

// EncodeColor builds a color frame: the command byte followed by R, G, B and
// W as big endian 16 bit values. The color is clamped first.
func EncodeColor(c color.Color) [FrameSize]byte {
	c = c.Clamp()
	var f [FrameSize]byte
	f[0] = ColorCmd
	for i, v := range [...]float64{c.R, c.G, c.B, c.W} {
		binary.BigEndian.PutUint16(f[1+2*i:], to16(v))
	}
	return f
}

// DecodeColor is the inverse of EncodeColor.
func DecodeColor(f [FrameSize]byte) (color.Color, error) {
	if f[0] != ColorCmd {
		return color.Color{}, fmt.Errorf("%w: command 0x%02X is not a color", ErrBadFrame, f[0])
	}
	var ch [4]float64
	for i := range ch {
		ch[i] = float64(binary.BigEndian.Uint16(f[1+2*i:])) / math.MaxUint16
	}
	return color.New(ch[0], ch[1], ch[2], ch[3]), nil
}

// EncodeRooms builds a room frame with one magic byte per switched on room.
func EncodeRooms(r rooms.Rooms) [FrameSize]byte {
	var f [FrameSize]byte
	f[0] = RoomCmd
	for _, room := range rooms.All {
		if r.Get(room) {
			f[1+int(room)] = roomMagic[room]
		}
	}
	return f
}

// DecodeRooms is the inverse of EncodeRooms.
func DecodeRooms(f [FrameSize]byte) (rooms.Rooms, error) {
	if f[0] != RoomCmd {
		return rooms.Rooms{}, fmt.Errorf("%w: command 0x%02X is not a room update", ErrBadFrame, f[0])
	}
	var r rooms.Rooms
	for _, room := range rooms.All {
		switch f[1+int(room)] {
		case roomMagic[room]:
			r = r.With(room, true)
		case 0x00:
		default:
			return rooms.Rooms{}, fmt.Errorf("%w: slot %d holds 0x%02X", ErrBadFrame, room, f[1+int(room)])
		}
	}
	return r, nil
}
