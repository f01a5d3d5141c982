package sequence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/scheerer/led-foot/internal/color"
)

const (
	// Resolution is the playback rate in frames per second.
	Resolution = 30

	// TransitionDuration is the length of the fade into every new effect.
	TransitionDuration = time.Second

	// DefaultGradientDuration applies when a gradient file name carries no duration.
	DefaultGradientDuration = 10 * time.Second
)

// ErrEndOfSequence is returned by Next once a non-repeating sequence has
// emitted its last frame.
var ErrEndOfSequence = errors.New("end of sequence")

type Kind int

const (
	KindColor Kind = iota
	KindGradient
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindGradient:
		return "gradient"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "color":
		return KindColor, nil
	case "gradient":
		return KindGradient, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Blend selects how neighbouring keyframes are mixed.
type Blend int

const (
	BlendLinear Blend = iota
	BlendLab
)

func ParseBlend(s string) (Blend, error) {
	switch s {
	case "", "linear":
		return BlendLinear, nil
	case "lab":
		return BlendLab, nil
	default:
		return 0, fmt.Errorf("unknown blend %q", s)
	}
}

func (b Blend) mix(from, to color.Color, t float64) color.Color {
	if b == BlendLab {
		return from.LerpLab(to, t)
	}
	return from.Lerp(to, t)
}

// Info is the metadata carried by a Sequence.
type Info struct {
	Kind     Kind
	Name     string
	Duration time.Duration
	Repeat   bool
	Blend    Blend
}

// Sequence is a finite list of frames consumed through a cursor: an optional
// lead-in that plays once, then a body. When Repeat is set the cursor wraps
// to the start of the body after the last frame.
//
// A Sequence is not safe for concurrent use; the render state owns it. The
// body is never modified, so sequences built from one Source share it.
type Sequence struct {
	Info

	lead  []color.Color
	body  []color.Color
	index int
}

// New builds a sequence over frames. repeatStart is limited to [0, len(frames)].
func New(info Info, frames []color.Color, repeatStart int) *Sequence {
	repeatStart = min(max(repeatStart, 0), len(frames))
	return &Sequence{
		Info: info,
		lead: frames[:repeatStart],
		body: frames[repeatStart:],
	}
}

// Next advances the cursor and returns the frame under it. It returns
// ErrEndOfSequence when there is nothing left to play.
func (s *Sequence) Next() (color.Color, error) {
	if s.index >= s.Len() {
		if !s.Repeat || len(s.body) == 0 {
			return color.Color{}, ErrEndOfSequence
		}
		s.index = len(s.lead)
	}
	var c color.Color
	if s.index < len(s.lead) {
		c = s.lead[s.index]
	} else {
		c = s.body[s.index-len(s.lead)]
	}
	s.index++
	return c, nil
}

// Len is the number of frames in one pass, including any lead-in transition.
func (s *Sequence) Len() int { return len(s.lead) + len(s.body) }

// RepeatStart is the index playback resumes from after wrapping.
func (s *Sequence) RepeatStart() int { return len(s.lead) }

// Frames returns a copy of all frames, lead-in first.
func (s *Sequence) Frames() []color.Color {
	out := make([]color.Color, 0, s.Len())
	out = append(out, s.lead...)
	return append(out, s.body...)
}

// frameCount is the number of frames needed to fill d at Resolution.
func frameCount(d time.Duration) int {
	return int(math.Round(d.Seconds() * Resolution))
}
