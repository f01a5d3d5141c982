package sequence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/led-foot/internal/color"
)

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.png", "a.JPG", "a.jpeg", "a.bmp", "a.webp", "a.yaml", "a.yml", "a.json"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.gif", "a.txt", "README"} {
		assert.False(t, Supported(name), name)
	}
}

func TestOpenImageSourceStartsFromGivenColor(t *testing.T) {
	path := writeGradient(t, t.TempDir(), "gradient_ramp_1.png", 64)

	info, src, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "ramp", info.Name)
	assert.Equal(t, KindGradient, info.Kind)

	green := color.New(0, 1, 0, 0)
	s := src(green)
	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, green, first)

	// sources are reusable and only the fade in depends on the start color
	s2 := src(color.Black)
	require.Equal(t, s.Len(), s2.Len())
	lead := s.RepeatStart()
	assert.Equal(t, s.Frames()[lead:], s2.Frames()[lead:])
	assert.NotEqual(t, s.Frames()[0], s2.Frames()[0])
}

func TestPrepareBreakpointsMatchesFromColorBreakpoints(t *testing.T) {
	points := []color.Color{color.New(1, 0, 0, 0), color.New(0, 0, 1, 1)}
	percents := []float64{0, 1}
	info := Info{Kind: KindGradient, Name: "mix", Duration: 3 * time.Second, Blend: BlendLab}

	src, err := PrepareBreakpoints(points, percents, info)
	require.NoError(t, err)
	want, err := FromColorBreakpoints(color.Black, points, percents, info)
	require.NoError(t, err)

	got := src(color.Black)
	assert.Equal(t, want.Info, got.Info)
	assert.Equal(t, want.Frames(), got.Frames())

	_, err = PrepareBreakpoints(points, []float64{1, 0}, info)
	assert.ErrorIs(t, err, ErrBadBreakpoints)
}

func TestOpenBreakpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anything.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "glow", "duration": "2s", "points": [{"at": 0, "w": 1}, {"at": 1, "w": 0}]}`), 0o644))

	info, src, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "glow", info.Name)
	assert.Equal(t, 2*time.Second, info.Duration)

	s := src(color.Black)
	assert.Equal(t, Resolution+1+2*Resolution, s.Len())

	described, err := Describe(path)
	require.NoError(t, err)
	assert.Equal(t, info, described)
}

func TestOpenUnsupported(t *testing.T) {
	_, _, err := Open("gradient_x.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = Describe("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestDescribeImageDoesNotReadFile(t *testing.T) {
	info, err := Describe(filepath.Join(t.TempDir(), "color_amber.png"))
	require.NoError(t, err)
	assert.Equal(t, KindColor, info.Kind)
	assert.Equal(t, "amber", info.Name)
}
