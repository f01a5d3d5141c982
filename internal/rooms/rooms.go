package rooms

import "fmt"

type Room int

const (
	LivingRoom Room = iota
	Office
	Bedroom
)

// All lists the rooms in relay slot order.
var All = []Room{LivingRoom, Office, Bedroom}

func (r Room) String() string {
	switch r {
	case LivingRoom:
		return "living_room"
	case Office:
		return "office"
	case Bedroom:
		return "bedroom"
	default:
		return fmt.Sprintf("room(%d)", int(r))
	}
}

func ParseRoom(s string) (Room, error) {
	for _, r := range All {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown room %q", s)
}

// Rooms holds the on/off state of each room relay.
type Rooms struct {
	LivingRoom bool `json:"living_room" yaml:"living_room"`
	Office     bool `json:"office" yaml:"office"`
	Bedroom    bool `json:"bedroom" yaml:"bedroom"`
}

// Get reports whether room r is on.
func (rs Rooms) Get(r Room) bool {
	switch r {
	case LivingRoom:
		return rs.LivingRoom
	case Office:
		return rs.Office
	case Bedroom:
		return rs.Bedroom
	}
	return false
}

// With returns a copy of rs with room r set to on.
func (rs Rooms) With(r Room, on bool) Rooms {
	switch r {
	case LivingRoom:
		rs.LivingRoom = on
	case Office:
		rs.Office = on
	case Bedroom:
		rs.Bedroom = on
	}
	return rs
}

// Only returns a Rooms with just r switched on.
func Only(r Room) Rooms {
	return Rooms{}.With(r, true)
}

// Scheduled is a partial room update: nil fields leave the current state alone.
type Scheduled struct {
	LivingRoom *bool `json:"living_room,omitempty" yaml:"living_room,omitempty"`
	Office     *bool `json:"office,omitempty" yaml:"office,omitempty"`
	Bedroom    *bool `json:"bedroom,omitempty" yaml:"bedroom,omitempty"`
}

// Merge applies the set fields of s over base.
func Merge(base Rooms, s Scheduled) Rooms {
	if s.LivingRoom != nil {
		base.LivingRoom = *s.LivingRoom
	}
	if s.Office != nil {
		base.Office = *s.Office
	}
	if s.Bedroom != nil {
		base.Bedroom = *s.Bedroom
	}
	return base
}
