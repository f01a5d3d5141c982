package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scheerer/led-foot/internal/rooms"
)

// Alarm starts a sequence or color, and optionally switches rooms, at a time
// of day on the listed weekdays.
type Alarm struct {
	Days    []string `json:"days" yaml:"days"`
	Hour    Hour     `json:"hour" yaml:"hour"`
	Minute  Minute   `json:"minute" yaml:"minute"`
	Enabled *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Sequence is looked up in the sequence directory. Color is a hex color
	// used when no sequence is given.
	Sequence string           `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Color    string           `json:"color,omitempty" yaml:"color,omitempty"`
	Rooms    *rooms.Scheduled `json:"rooms,omitempty" yaml:"rooms,omitempty"`
}

// IsEnabled treats a missing enabled flag as on.
func (a Alarm) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Matches reports whether the alarm is due in the minute containing now.
func (a Alarm) Matches(now time.Time) bool {
	if !a.IsEnabled() || int(a.Hour) != now.Hour() || int(a.Minute) != now.Minute() {
		return false
	}
	for _, d := range a.Days {
		if wd, err := parseDay(d); err == nil && wd == now.Weekday() {
			return true
		}
	}
	return false
}

func (a Alarm) String() string {
	return fmt.Sprintf("%s %02d:%02d", strings.Join(a.Days, ","), a.Hour, a.Minute)
}

func (a Alarm) validate() error {
	for _, d := range a.Days {
		if _, err := parseDay(d); err != nil {
			return err
		}
	}
	return nil
}

var days = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseDay accepts "Mon" style abbreviations and full day names.
func parseDay(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	if wd, ok := days[key]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Hour and Minute decode from a number or a zero padded string ("07") and
// are written back as zero padded strings.
type (
	Hour   int
	Minute int
)

func (h *Hour) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseClock(value, 23)
	*h = Hour(v)
	return err
}

func (h Hour) MarshalYAML() (interface{}, error) { return fmt.Sprintf("%02d", int(h)), nil }

func (h Hour) MarshalJSON() ([]byte, error) { return json.Marshal(fmt.Sprintf("%02d", int(h))) }

func (m *Minute) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseClock(value, 59)
	*m = Minute(v)
	return err
}

func (m Minute) MarshalYAML() (interface{}, error) { return fmt.Sprintf("%02d", int(m)), nil }

func (m Minute) MarshalJSON() ([]byte, error) { return json.Marshal(fmt.Sprintf("%02d", int(m))) }

func parseClock(value *yaml.Node, limit int) (int, error) {
	if value.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected a number", value.Line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(value.Value))
	if err != nil {
		return 0, fmt.Errorf("line %d: %q is not a number", value.Line, value.Value)
	}
	if v < 0 || v > limit {
		return 0, fmt.Errorf("line %d: %d is out of range 0-%d", value.Line, v, limit)
	}
	return v, nil
}
