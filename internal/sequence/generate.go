package sequence

import (
	"fmt"
	"math"
	"time"

	"github.com/scheerer/led-foot/internal/color"
)

// FromColorLerp fades linearly from start to end over TransitionDuration,
// emitting Resolution+1 frames with both endpoints included.
func FromColorLerp(start, end color.Color) *Sequence {
	return New(Info{
		Kind:     KindColor,
		Name:     end.Hex(),
		Duration: TransitionDuration,
	}, lerpFrames(start, end), 0)
}

func lerpFrames(start, end color.Color) []color.Color {
	n := frameCount(TransitionDuration)
	frames := make([]color.Color, n+1)
	for i := 0; i <= n; i++ {
		frames[i] = start.Lerp(end, float64(i)/float64(n))
	}
	return frames
}

// FadeToBlack fades start to off over d. The white channel follows a cube
// root curve so it dims ahead of RGB and does not linger as a glow.
func FadeToBlack(start color.Color, d time.Duration) *Sequence {
	n := frameCount(d)
	frames := make([]color.Color, n+1)
	for i := 0; i <= n; i++ {
		t := 1.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		c := start.Lerp(color.Black, t)
		c.W = start.W * (1 - math.Cbrt(t))
		frames[i] = c
	}
	return New(Info{
		Kind:     KindColor,
		Name:     "fade",
		Duration: d,
	}, frames, 0)
}

// withTransition puts a fade from start to the first body frame in front of
// body and marks the body as the repeating part. body is shared, not copied.
func withTransition(start color.Color, info Info, body []color.Color) *Sequence {
	info.Duration += TransitionDuration
	return &Sequence{
		Info: info,
		lead: lerpFrames(start, body[0]),
		body: body,
	}
}

// FromColorBreakpoints spreads info.Duration worth of frames across the
// breakpoints. percents holds each point's position in [0, 1], ascending.
func FromColorBreakpoints(start color.Color, points []color.Color, percents []float64, info Info) (*Sequence, error) {
	src, err := PrepareBreakpoints(points, percents, info)
	if err != nil {
		return nil, err
	}
	return src(start), nil
}

// PrepareBreakpoints renders the breakpoint body and returns a Source that
// only adds the fade in.
func PrepareBreakpoints(points []color.Color, percents []float64, info Info) (Source, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrBadBreakpoints)
	}
	if len(points) != len(percents) {
		return nil, fmt.Errorf("%w: %d points but %d positions", ErrBadBreakpoints, len(points), len(percents))
	}
	for i, p := range percents {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: position %v out of range", ErrBadBreakpoints, p)
		}
		if i > 0 && p < percents[i-1] {
			return nil, fmt.Errorf("%w: positions not ascending", ErrBadBreakpoints)
		}
	}

	n := frameCount(info.Duration)
	body := []color.Color{points[0]}
	if n > 0 {
		body = make([]color.Color, n)
		for i := range body {
			f := 0.0
			if n > 1 {
				f = float64(i) / float64(n-1)
			}
			body[i] = breakpointAt(points, percents, f, info.Blend)
		}
	}
	return attach(info, body), nil
}

func breakpointAt(points []color.Color, percents []float64, f float64, blend Blend) color.Color {
	last := len(points) - 1
	if f <= percents[0] {
		return points[0]
	}
	if f >= percents[last] {
		return points[last]
	}
	k := 0
	for k < last && percents[k+1] <= f {
		k++
	}
	if k == last {
		return points[last]
	}
	span := percents[k+1] - percents[k]
	if span <= 0 {
		return points[k+1]
	}
	return blend.mix(points[k], points[k+1], (f-percents[k])/span)
}
