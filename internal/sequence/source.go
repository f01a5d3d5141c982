package sequence

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scheerer/led-foot/internal/color"
)

// Source finishes a sequence from the color the lights show right now. The
// body is rendered before a Source is returned; calling one only builds the
// short fade in, so it is cheap enough to run under the render state lock.
type Source func(start color.Color) *Sequence

// attach returns a Source that fades from start into body.
func attach(info Info, body []color.Color) Source {
	return func(start color.Color) *Sequence {
		return withTransition(start, info, body)
	}
}

var (
	imageExts      = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}
	breakpointExts = []string{".yaml", ".yml", ".json"}
)

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Supported reports whether Open understands the file at path.
func Supported(path string) bool {
	return hasExt(path, imageExts) || hasExt(path, breakpointExts)
}

// Open reads a gradient image or breakpoint file.
func Open(path string) (Info, Source, error) {
	switch {
	case hasExt(path, imageExts):
		return openImage(path)
	case hasExt(path, breakpointExts):
		return openBreakpoints(path)
	}
	return Info{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
}

// Describe returns the metadata of a sequence file without rendering it.
// Images are not even opened since their file name carries the metadata.
func Describe(path string) (Info, error) {
	switch {
	case hasExt(path, imageExts):
		return ParseFileName(path)
	case hasExt(path, breakpointExts):
		info, _, _, err := readBreakpoints(path)
		return info, err
	}
	return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
}
