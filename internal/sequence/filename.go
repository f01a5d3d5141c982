package sequence

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseFileName reads sequence metadata from a file name of the form
// {kind}_{name}[_{seconds}[_repeat]].{ext}, e.g. gradient_cools_20_repeat.png.
func ParseFileName(path string) (Info, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(stem, "_")
	if len(tokens) < 2 || len(tokens) > 4 || tokens[1] == "" {
		return Info{}, fmt.Errorf("%w: %q", ErrMalformedName, base)
	}

	kind, err := ParseKind(tokens[0])
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", base, err)
	}

	info := Info{
		Kind:     kind,
		Name:     tokens[1],
		Duration: DefaultGradientDuration,
	}
	if kind == KindColor {
		info.Duration = TransitionDuration
	}

	if len(tokens) > 2 {
		secs, err := strconv.ParseFloat(tokens[2], 64)
		if err != nil || secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return Info{}, fmt.Errorf("%s: %w: %q", base, ErrBadDuration, tokens[2])
		}
		info.Duration = time.Duration(secs * float64(time.Second))
	}

	if len(tokens) > 3 {
		if tokens[3] != "repeat" {
			return Info{}, fmt.Errorf("%s: %w: %q", base, ErrBadRepeat, tokens[3])
		}
		info.Repeat = true
	}

	return info, nil
}
