package sequence

import (
	"fmt"
	"image"
	"os"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/logging"
)

var logger = logging.New("sequence")

// FromGradientImage loads a sequence from an image whose file name carries its
// metadata (see ParseFileName). A color image fades from start to the image's
// color; a gradient image plays its scanline over the encoded duration after
// a fade in from start.
func FromGradientImage(start color.Color, path string) (*Sequence, error) {
	_, src, err := openImage(path)
	if err != nil {
		return nil, err
	}
	return src(start), nil
}

func openImage(path string) (Info, Source, error) {
	info, err := ParseFileName(path)
	if err != nil {
		return Info{}, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return Info{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	src, err := PrepareImage(img, info)
	if err != nil {
		return Info{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, src, nil
}

// FromImage builds the sequence for an already decoded image.
func FromImage(start color.Color, img image.Image, info Info) (*Sequence, error) {
	src, err := PrepareImage(img, info)
	if err != nil {
		return nil, err
	}
	return src(start), nil
}

// PrepareImage filters and resamples the image and returns a Source that only
// adds the fade in.
func PrepareImage(img image.Image, info Info) (Source, error) {
	raw := ScanGradient(img)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: image %q is empty", ErrUnsupportedFile, info.Name)
	}

	if info.Kind == KindColor {
		target := AverageColor(raw).Clamp()
		return func(start color.Color) *Sequence {
			seq := FromColorLerp(start, target)
			seq.Name = info.Name
			return seq
		}, nil
	}

	m := frameCount(info.Duration)
	if m == 0 {
		return nil, fmt.Errorf("%w: %v is shorter than one frame", ErrBadDuration, info.Duration)
	}

	body := Resample(MedianFilter(raw, MedianWindow), m)

	logger.Debugf("gradient %q: %d samples resampled to %d frames", info.Name, len(raw), len(body))

	return attach(info, body), nil
}
