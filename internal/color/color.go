package color

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an RGBW value with channels normalized to [0, 1]. Values outside
// that range may exist during arithmetic; Clamp brings them back before the
// color is handed to hardware.
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	W float64 `json:"w" yaml:"w"`
}

// Black is the all-off color.
var Black = Color{}

func New(r, g, b, w float64) Color {
	return Color{R: r, G: g, B: b, W: w}
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Clamp limits every channel to [0, 1]. NaN becomes 0.
func (c Color) Clamp() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), W: clamp01(c.W)}
}

func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, W: c.W + o.W}
}

func (c Color) Sub(o Color) Color {
	return Color{R: c.R - o.R, G: c.G - o.G, B: c.B - o.B, W: c.W - o.W}
}

func (c Color) Mul(s float64) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, W: c.W * s}
}

func (c Color) Div(s float64) Color {
	return Color{R: c.R / s, G: c.G / s, B: c.B / s, W: c.W / s}
}

// Lerp interpolates every channel linearly. t is not restricted to [0, 1] so
// callers may extrapolate.
func (c Color) Lerp(o Color, t float64) Color {
	return c.Add(o.Sub(c).Mul(t))
}

// LerpLab interpolates RGB in CIE L*a*b* space and W linearly, then clamps.
func (c Color) LerpLab(o Color, t float64) Color {
	from := colorful.Color{R: c.R, G: c.G, B: c.B}
	to := colorful.Color{R: o.R, G: o.G, B: o.B}
	mixed := from.BlendLab(to, t)
	return Color{
		R: mixed.R,
		G: mixed.G,
		B: mixed.B,
		W: c.W + (o.W-c.W)*t,
	}.Clamp()
}

// ApproxEqual reports whether every channel differs by at most eps.
func (c Color) ApproxEqual(o Color, eps float64) bool {
	return math.Abs(c.R-o.R) <= eps &&
		math.Abs(c.G-o.G) <= eps &&
		math.Abs(c.B-o.B) <= eps &&
		math.Abs(c.W-o.W) <= eps
}

// InRange reports whether every channel is within [0, 1].
func (c Color) InRange() bool {
	for _, v := range [...]float64{c.R, c.G, c.B, c.W} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func to8(x float64) uint8 {
	return uint8(math.Round(clamp01(x) * 0xFF))
}

// RGB8 returns the clamped RGB channels scaled to 0-255.
func (c Color) RGB8() (uint8, uint8, uint8) {
	return to8(c.R), to8(c.G), to8(c.B)
}

// W8 returns the clamped white channel scaled to 0-255.
func (c Color) W8() uint8 {
	return to8(c.W)
}

// RGBCSS returns a css string of the RGB channels.
func (c Color) RGBCSS() string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

// WhiteCSS returns a css string of the white channel as gray.
func (c Color) WhiteCSS() string {
	w := c.W8()
	return fmt.Sprintf("rgb(%d, %d, %d)", w, w, w)
}

// Hex returns the clamped RGB channels as "#rrggbb".
func (c Color) Hex() string {
	cl := c.Clamp()
	return colorful.Color{R: cl.R, G: cl.G, B: cl.B}.Hex()
}

// ParseHex parses "#rrggbb" (or "#rgb") into a Color with the given white level.
func ParseHex(s string, w float64) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, W: w}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", c.R, c.G, c.B, c.W)
}
