package frames

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LoadGray decodes a frame image and returns its luma plane as a
// row-major single-channel buffer, plus the frame dimensions.
func LoadGray(path string) ([]byte, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("cannot open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("cannot decode frame %s: %w", path, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if gray, ok := img.(*image.Gray); ok && gray.Stride == width {
		return gray.Pix, width, height, nil
	}

	buf := make([]byte, width*height)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// BT.601 luma from 16-bit channel values
			buf[i] = byte((299*r + 587*g + 114*b) / 1000 >> 8)
			i++
		}
	}
	return buf, width, height, nil
}
