package color

import "math"

// HSB converts the clamped RGB channels to hue, saturation and brightness,
// each scaled to the full uint16 range.
func (c Color) HSB() (uint16, uint16, uint16) {
	cl := c.Clamp()
	red, green, blue := cl.R, cl.G, cl.B

	max := math.Max(red, math.Max(green, blue))
	min := math.Min(red, math.Min(green, blue))
	delta := max - min

	var h, s float64
	v := max

	if delta != 0 {
		s = delta / max

		deltaR := (((max - red) / 6) + (delta / 2)) / delta
		deltaG := (((max - green) / 6) + (delta / 2)) / delta
		deltaB := (((max - blue) / 6) + (delta / 2)) / delta

		switch max {
		case red:
			h = deltaB - deltaG
		case green:
			h = (1.0 / 3.0) + deltaR - deltaB
		default:
			h = (2.0 / 3.0) + deltaG - deltaR
		}

		if h < 0 {
			h += 1
		}
		if h > 1 {
			h -= 1
		}
	}

	return uint16(math.Round(h * 0xFFFF)), uint16(math.Round(s * 0xFFFF)), uint16(math.Round(v * 0xFFFF))
}

// IsGreyish reports whether a saturation from HSB is low enough to read as grey.
func IsGreyish(saturation uint16) bool {
	return float64(saturation) <= float64(0xFFFF)*0.2
}
