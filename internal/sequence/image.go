package sequence

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/scheerer/led-foot/internal/color"
)

// DecodeImage decodes a png, jpeg, bmp or webp gradient image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	logger.Debugf("decoded %s image %v", format, img.Bounds())
	return img, nil
}

// ScanGradient samples one color per image column. RGB comes from the top
// row and W from the row at the vertical midpoint, read as the mean of that
// pixel's RGB. Single row images have no white channel.
func ScanGradient(img image.Image) []color.Color {
	b := img.Bounds()
	out := make([]color.Color, 0, b.Dx())

	top := b.Min.Y
	mid := b.Min.Y + b.Dy()/2
	hasWhite := b.Dy() >= 2

	for x := b.Min.X; x < b.Max.X; x++ {
		r, g, bl, _ := img.At(x, top).RGBA()
		c := color.Color{
			R: float64(r) / 0xFFFF,
			G: float64(g) / 0xFFFF,
			B: float64(bl) / 0xFFFF,
		}
		if hasWhite {
			wr, wg, wb, _ := img.At(x, mid).RGBA()
			c.W = (float64(wr) + float64(wg) + float64(wb)) / 3 / 0xFFFF
		}
		out = append(out, c)
	}
	return out
}

// AverageColor is the mean of samples, or black when there are none.
func AverageColor(samples []color.Color) color.Color {
	if len(samples) == 0 {
		return color.Black
	}
	var sum color.Color
	for _, c := range samples {
		sum = sum.Add(c)
	}
	return sum.Div(float64(len(samples)))
}
