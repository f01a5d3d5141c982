package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/rooms"
	"github.com/scheerer/led-foot/internal/sequence"
)

var logger = logging.New("schedule")

// Controller is what a firing alarm drives.
type Controller interface {
	SetSequence(name string) (sequence.Info, error)
	SetColor(c color.Color)
	ApplyScheduledRooms(s rooms.Scheduled) rooms.Rooms
}

// Load reads a list of alarms from a YAML or JSON file.
func Load(path string) ([]Alarm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var alarms []Alarm
	if err := yaml.Unmarshal(data, &alarms); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, a := range alarms {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("%s: alarm %d: %w", path, i, err)
		}
	}
	return alarms, nil
}

// Save writes alarms to path, as indented JSON unless the file has a YAML
// extension.
func Save(path string, alarms []Alarm) error {
	if alarms == nil {
		alarms = []Alarm{}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(alarms)
	default:
		data, err = json.MarshalIndent(alarms, "", "  ")
	}
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Scheduler fires alarms from a schedule file. At most one round of alarms
// fires per wall-clock minute.
type Scheduler struct {
	path string
	ctl  Controller

	mu         sync.Mutex
	alarms     []Alarm
	lastMinute time.Time
}

// New loads the schedule at path. A missing or unreadable schedule leaves the
// scheduler empty.
func New(path string, ctl Controller) *Scheduler {
	alarms, err := Load(path)
	if err != nil {
		logger.With(zap.String("path", path), zap.Error(err)).Warn("Unable to load schedule, starting empty")
		alarms = nil
	} else {
		logger.With(zap.String("path", path), zap.Int("alarms", len(alarms))).Info("Loaded schedule")
	}
	return &Scheduler{path: path, ctl: ctl, alarms: alarms}
}

func (s *Scheduler) Alarms() []Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Alarm(nil), s.alarms...)
}

// Reset replaces the alarms and rewrites the schedule file.
func (s *Scheduler) Reset(alarms []Alarm) error {
	for i, a := range alarms {
		if err := a.validate(); err != nil {
			return fmt.Errorf("alarm %d: %w", i, err)
		}
	}

	s.mu.Lock()
	s.alarms = append([]Alarm(nil), alarms...)
	s.mu.Unlock()

	if err := Save(s.path, alarms); err != nil {
		return fmt.Errorf("rewrite schedule: %w", err)
	}
	logger.With(zap.String("path", s.path)).Debug("Wrote schedule file")
	return nil
}

// Tick fires every alarm due at now, unless alarms already fired during
// this minute, and returns the ones it fired.
func (s *Scheduler) Tick(now time.Time) []Alarm {
	minute := now.Truncate(time.Minute)

	s.mu.Lock()
	if minute.Equal(s.lastMinute) {
		s.mu.Unlock()
		return nil
	}
	var due []Alarm
	for _, a := range s.alarms {
		if a.Matches(now) {
			due = append(due, a)
		}
	}
	if len(due) > 0 {
		s.lastMinute = minute
	}
	s.mu.Unlock()

	for _, a := range due {
		s.fire(a)
	}
	return due
}

func (s *Scheduler) fire(a Alarm) {
	logger.With(zap.Stringer("alarm", a)).Info("Starting on schedule")

	if a.Rooms != nil {
		s.ctl.ApplyScheduledRooms(*a.Rooms)
	}

	switch {
	case a.Sequence != "":
		if _, err := s.ctl.SetSequence(a.Sequence); err != nil {
			logger.With(zap.String("sequence", a.Sequence), zap.Error(err)).Error("Scheduled sequence failed")
		}
	case a.Color != "":
		c, err := color.ParseHex(a.Color, 0)
		if err != nil {
			logger.With(zap.Error(err)).Error("Scheduled color failed")
			return
		}
		s.ctl.SetColor(c)
	}
}

// Run ticks every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}
