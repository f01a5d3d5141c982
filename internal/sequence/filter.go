package sequence

import (
	"math"
	"sort"

	"github.com/scheerer/led-foot/internal/color"
)

// MedianWindow is the median filter width used on gradient scanlines. It is
// wide enough to swallow single pixel artifacts left by lossy encoders.
const MedianWindow = 51

// MedianFilter runs a sliding median of the given width over each channel.
// Near the edges the window shrinks symmetrically, so the end samples pass
// through unchanged.
func MedianFilter(in []color.Color, window int) []color.Color {
	out := make([]color.Color, len(in))
	if len(in) == 0 {
		return out
	}
	half := window / 2
	if half < 0 {
		half = 0
	}

	reds := make([]float64, 0, window)
	greens := make([]float64, 0, window)
	blues := make([]float64, 0, window)
	whites := make([]float64, 0, window)

	for i := range in {
		// the window stays centered on i, so a monotonic run is its own median
		r := min(half, i, len(in)-1-i)

		reds, greens, blues, whites = reds[:0], greens[:0], blues[:0], whites[:0]
		for _, c := range in[i-r : i+r+1] {
			reds = append(reds, c.R)
			greens = append(greens, c.G)
			blues = append(blues, c.B)
			whites = append(whites, c.W)
		}

		out[i] = color.Color{
			R: median(reds),
			G: median(greens),
			B: median(blues),
			W: median(whites),
		}
	}
	return out
}

// median sorts values in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}

// Resample converts src to exactly m frames. Each output frame is a tent
// weighted average of the source samples around its proportional position;
// the tent is max(3, round(len(src)/m)) samples wide.
func Resample(src []color.Color, m int) []color.Color {
	if m <= 0 {
		return nil
	}
	out := make([]color.Color, m)
	n := len(src)
	if n == 0 {
		return out
	}

	width := 3
	if w := int(math.Round(float64(n) / float64(m))); w > width {
		width = w
	}
	half := float64(width) / 2

	for j := range out {
		center := float64(n-1) / 2
		if m > 1 {
			center = float64(j) * float64(n-1) / float64(m-1)
		}

		lo := max(0, int(math.Ceil(center-half)))
		hi := min(n-1, int(math.Floor(center+half)))

		var sum color.Color
		var total float64
		for k := lo; k <= hi; k++ {
			w := 1 - math.Abs(float64(k)-center)/half
			if w <= 0 {
				continue
			}
			sum = sum.Add(src[k].Mul(w))
			total += w
		}

		if total == 0 {
			out[j] = src[min(n-1, int(math.Round(center)))].Clamp()
			continue
		}
		out[j] = sum.Div(total).Clamp()
	}
	return out
}
