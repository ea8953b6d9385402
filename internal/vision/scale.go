package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// downscale shrinks img so its width does not exceed maxWidth and reports the
// applied scale factor (1.0 when no scaling was needed). Detection runs on the
// scaled frame; callers map coordinates back with the inverse factor.
func downscale(img *image.Gray, maxWidth int) (*image.Gray, float64) {
	bounds := img.Bounds()
	width := bounds.Dx()
	if maxWidth <= 0 || width <= maxWidth {
		return img, 1.0
	}

	scale := float64(maxWidth) / float64(width)
	height := int(float64(bounds.Dy()) * scale)
	if height < 1 {
		height = 1
	}
	scaled := image.NewGray(image.Rect(0, 0, maxWidth, height))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
	return scaled, scale
}
