package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
)

// AspectRatio returns width/height for the image file at path.
func AspectRatio(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Height == 0 {
		return 0, fmt.Errorf("image %s has zero height", path)
	}
	return float64(cfg.Width) / float64(cfg.Height), nil
}

// Rotate90 returns src rotated 90 degrees counter-clockwise, turning a
// portrait-rotated landscape drawing back upright.
func Rotate90(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dy(), bounds.Dx()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(y-bounds.Min.Y, bounds.Max.X-1-x, src.At(x, y))
		}
	}
	return dst
}

// RotateFile reads the image at src, rotates it 90 degrees and writes it as
// PNG to dst.
func RotateFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating output image: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, Rotate90(img)); err != nil {
		return fmt.Errorf("encoding rotated image: %w", err)
	}
	return nil
}
