package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangle of cells or pixels. (X1,Y1) is inclusive and
// (X2,Y2) exclusive.
type Region struct {
	X1 int `json:"x1" toml:"x1" yaml:"x1"`
	Y1 int `json:"y1" toml:"y1" yaml:"y1"`
	X2 int `json:"x2" toml:"x2" yaml:"x2"`
	Y2 int `json:"y2" toml:"y2" yaml:"y2"`
}

// Width returns X2-X1.
func (r Region) Width() int { return r.X2 - r.X1 }

// Height returns Y2-Y1.
func (r Region) Height() int { return r.Y2 - r.Y1 }

// within validates the region against a width x height area.
func (r Region) within(width, height int) error {
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > width || r.Y2 > height {
		return fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, width, height)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

// Crop extracts a rectangular region from an image and optionally rescales
// it. Upscaling uses nearest-neighbor so detector cells stay sharp.
func Crop(img image.Image, r Region, scale float64) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if err := r.within(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	cropped := imaging.Crop(img, image.Rect(r.X1, r.Y1, r.X2, r.Y2).Add(bounds.Min))

	if scale != 1.0 && scale > 0 {
		newWidth := max(int(float64(cropped.Bounds().Dx())*scale), 1)
		newHeight := max(int(float64(cropped.Bounds().Dy())*scale), 1)
		filter := imaging.Lanczos
		if scale > 1 {
			filter = imaging.NearestNeighbor
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, filter)
	}
	return cropped, nil
}

// QuadrantRegion returns a named region of a width x height area. The
// detector images are often viewed one quadrant at a time.
//
// Supported names: top-left, top-right, bottom-left, bottom-right, top-half,
// bottom-half, left-half, right-half and center (the middle 50%).
func QuadrantRegion(width, height int, name string) (Region, error) {
	midX := width / 2
	midY := height / 2

	var r Region
	switch name {
	case "top-left":
		r = Region{0, 0, midX, midY}
	case "top-right":
		r = Region{midX, 0, width, midY}
	case "bottom-left":
		r = Region{0, midY, midX, height}
	case "bottom-right":
		r = Region{midX, midY, width, height}
	case "top-half":
		r = Region{0, 0, width, midY}
	case "bottom-half":
		r = Region{0, midY, width, height}
	case "left-half":
		r = Region{0, 0, midX, height}
	case "right-half":
		r = Region{midX, 0, width, height}
	case "center":
		qW := width / 4
		qH := height / 4
		r = Region{qW, qH, width - qW, height - qH}
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}
	if err := r.within(width, height); err != nil {
		return Region{}, fmt.Errorf("region %s of %dx%d: %w", name, width, height, err)
	}
	return r, nil
}
