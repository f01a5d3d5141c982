package sequence

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scheerer/led-foot/internal/color"
)

// BreakpointFile is the on-disk form of a breakpoint sequence. JSON files
// decode too, since YAML is a superset of JSON.
//
//	name: sunrise
//	duration: 20m
//	blend: lab
//	points:
//	  - {at: 0, hex: "#000000"}
//	  - {at: 0.6, hex: "#ff7a1a", w: 0.2}
//	  - {at: 1, r: 1, g: 1, b: 1, w: 1}
type BreakpointFile struct {
	Name     string            `yaml:"name"`
	Duration time.Duration     `yaml:"duration"`
	Repeat   bool              `yaml:"repeat"`
	Blend    string            `yaml:"blend"`
	Points   []BreakpointPoint `yaml:"points"`
}

type BreakpointPoint struct {
	At  float64 `yaml:"at"`
	Hex string  `yaml:"hex"`
	R   float64 `yaml:"r"`
	G   float64 `yaml:"g"`
	B   float64 `yaml:"b"`
	W   float64 `yaml:"w"`
}

func (p BreakpointPoint) color() (color.Color, error) {
	if p.Hex != "" {
		return color.ParseHex(p.Hex, p.W)
	}
	return color.New(p.R, p.G, p.B, p.W), nil
}

// ParseBreakpoints decodes a breakpoint file into the arguments of
// FromColorBreakpoints.
func ParseBreakpoints(data []byte) (Info, []color.Color, []float64, error) {
	var file BreakpointFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Info{}, nil, nil, fmt.Errorf("%w: %v", ErrBadBreakpoints, err)
	}
	if file.Name == "" {
		return Info{}, nil, nil, fmt.Errorf("%w: missing name", ErrBadBreakpoints)
	}
	if file.Duration <= 0 {
		return Info{}, nil, nil, fmt.Errorf("%w: %v", ErrBadDuration, file.Duration)
	}
	blend, err := ParseBlend(file.Blend)
	if err != nil {
		return Info{}, nil, nil, fmt.Errorf("%w: %v", ErrBadBreakpoints, err)
	}

	points := make([]color.Color, 0, len(file.Points))
	percents := make([]float64, 0, len(file.Points))
	for _, p := range file.Points {
		c, err := p.color()
		if err != nil {
			return Info{}, nil, nil, fmt.Errorf("%w: %v", ErrBadBreakpoints, err)
		}
		points = append(points, c)
		percents = append(percents, p.At)
	}

	info := Info{
		Kind:     KindGradient,
		Name:     file.Name,
		Duration: file.Duration,
		Repeat:   file.Repeat,
		Blend:    blend,
	}
	return info, points, percents, nil
}

// LoadBreakpoints reads a breakpoint file and builds its sequence from start.
func LoadBreakpoints(start color.Color, path string) (*Sequence, error) {
	_, src, err := openBreakpoints(path)
	if err != nil {
		return nil, err
	}
	return src(start), nil
}

func readBreakpoints(path string) (Info, []color.Color, []float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, nil, nil, err
	}
	info, points, percents, err := ParseBreakpoints(data)
	if err != nil {
		return Info{}, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, points, percents, nil
}

func openBreakpoints(path string) (Info, Source, error) {
	info, points, percents, err := readBreakpoints(path)
	if err != nil {
		return Info{}, nil, err
	}
	src, err := PrepareBreakpoints(points, percents, info)
	if err != nil {
		return Info{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, src, nil
}
