package lights

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/rooms"
)

type SerialConfig struct {
	Name        string
	Baud        int
	ReadTimeout time.Duration
}

// Serial talks to the controller over a serial port. If the port cannot be
// opened, the handshake fails, or a later read or write fails, it falls back
// to the console for the rest of its life. Callers cannot tell the
// difference: every method keeps the same contract in both modes.
type Serial struct {
	mu   sync.Mutex
	name string
	port io.ReadWriteCloser
	mock *Console
}

var _ Link = (*Serial)(nil)

// OpenSerial opens the configured port and performs the handshake.
func OpenSerial(cfg SerialConfig, mock *Console) *Serial {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		logger.With(zap.String("port", cfg.Name), zap.Error(err)).
			Warn("Unable to open serial port, using console mock")
		return &Serial{name: cfg.Name, mock: mock}
	}
	return NewSerial(cfg.Name, port, mock)
}

// NewSerial performs the handshake on an already open port: wait for the
// controller's init line, send black and wait for the color confirmation.
func NewSerial(name string, port io.ReadWriteCloser, mock *Console) *Serial {
	s := &Serial{name: name, port: port, mock: mock}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.expect(InitReply)
	if err == nil {
		frame := EncodeColor(color.Black)
		err = s.exchange(frame[:], ColorReply)
	}
	if err != nil {
		s.fallback("Serial handshake failed, using console mock", err)
		return s
	}

	logger.With(zap.String("port", name)).Info("Serial handshake complete")
	return s
}

// Mocked reports whether the link has fallen back to the console.
func (s *Serial) Mocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port == nil
}

func (s *Serial) SetColor(c color.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return s.mock.SetColor(c)
	}
	frame := EncodeColor(c)
	logger.Debugf("sending bytes: % X", frame)
	return s.send(frame[:], ColorReply)
}

func (s *Serial) SetRooms(r rooms.Rooms) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return s.mock.SetRooms(r)
	}
	frame := EncodeRooms(r)
	logger.Debugf("sending bytes: % X", frame)
	return s.send(frame[:], RoomReply)
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// send writes a frame and checks the reply. A wrong reply is only logged;
// an I/O failure switches to the console.
func (s *Serial) send(frame, want []byte) error {
	err := s.exchange(frame, want)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConfirmation) {
		logger.With(zap.Error(err)).Error("Serial reply mismatch")
		return err
	}
	s.fallback("Serial I/O failed, using console mock", err)
	return err
}

func (s *Serial) exchange(frame, want []byte) error {
	if _, err := s.port.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", s.name, err)
	}
	return s.expect(want)
}

func (s *Serial) expect(want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(s.port, got); err != nil {
		return fmt.Errorf("read %s: %w", s.name, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: wanted %q, received %q", ErrConfirmation, want, got)
	}
	return nil
}

func (s *Serial) fallback(msg string, err error) {
	logger.With(zap.String("port", s.name), zap.Error(err)).Warn(msg)
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
}
