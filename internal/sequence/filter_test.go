package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/led-foot/internal/color"
)

func ramp(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		v := float64(i) / float64(max(1, n-1))
		out[i] = color.New(v, 1-v, 0.5, v/2)
	}
	return out
}

func TestMedianFilterRemovesSpikes(t *testing.T) {
	in := make([]color.Color, 200)
	for i := range in {
		in[i] = color.New(0.5, 0.5, 0.5, 0.5)
	}
	in[40] = color.New(1, 0, 1, 0)
	in[41] = color.New(0, 1, 0, 1)
	in[150] = color.New(1, 1, 1, 1)

	out := MedianFilter(in, MedianWindow)
	require.Len(t, out, len(in))
	for i, c := range out {
		assert.Equal(t, color.New(0.5, 0.5, 0.5, 0.5), c, "sample %d", i)
	}
}

func TestMedianFilterKeepsMonotonicRamp(t *testing.T) {
	in := ramp(300)
	out := MedianFilter(in, MedianWindow)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i].R, out[i-1].R)
	}
	assert.Equal(t, in, out)
}

func TestMedianFilterKeepsNarrowRamp(t *testing.T) {
	in := ramp(40)
	out := MedianFilter(in, MedianWindow)
	assert.Equal(t, in[0], out[0])
	assert.Equal(t, in[39], out[39])
	assert.Equal(t, in, out)

	body := Resample(out, 60)
	assert.InDelta(t, 0, body[0].R, 0.02)
	assert.InDelta(t, 1, body[59].R, 0.02)
}

func TestMedianFilterSpikeAtEdge(t *testing.T) {
	in := make([]color.Color, 20)
	for i := range in {
		in[i] = color.New(0.5, 0.5, 0.5, 0.5)
	}
	in[1] = color.New(1, 1, 1, 1)

	out := MedianFilter(in, MedianWindow)
	assert.Equal(t, color.New(0.5, 0.5, 0.5, 0.5), out[1])
}

func TestMedianFilterEmpty(t *testing.T) {
	assert.Empty(t, MedianFilter(nil, MedianWindow))
}

func TestResampleLength(t *testing.T) {
	for _, n := range []int{1, 2, 5, 64, 500, 1920} {
		for _, m := range []int{1, 2, 3, 30, 300, 600, 4000} {
			out := Resample(ramp(n), m)
			assert.Len(t, out, m, "n=%d m=%d", n, m)
			for _, c := range out {
				assert.True(t, c.InRange(), "n=%d m=%d", n, m)
			}
		}
	}
}

func TestResampleUniform(t *testing.T) {
	c := color.New(0.2, 0.4, 0.6, 0.8)
	src := make([]color.Color, 97)
	for i := range src {
		src[i] = c
	}
	for _, m := range []int{10, 97, 400} {
		for _, out := range Resample(src, m) {
			assert.True(t, out.ApproxEqual(c, 1e-9))
		}
	}
}

func TestResampleFollowsRamp(t *testing.T) {
	src := ramp(1000)
	out := Resample(src, 100)
	for j := 1; j < len(out); j++ {
		assert.Greater(t, out[j].R, out[j-1].R)
	}
	assert.InDelta(t, 0, out[0].R, 0.01)
	assert.InDelta(t, 1, out[99].R, 0.01)

	up := Resample(ramp(10), 300)
	for j := 1; j < len(up); j++ {
		assert.GreaterOrEqual(t, up[j].R, up[j-1].R-1e-12)
	}
}

func TestResampleEmpty(t *testing.T) {
	assert.Nil(t, Resample(ramp(10), 0))
	assert.Len(t, Resample(nil, 5), 5)
}
