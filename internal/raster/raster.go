// Package raster converts continuous pixel coordinates into image indexes
// and accumulates per-pixel weights into a 2D image.
//
// Index arrays and images use the usual image convention: IX selects the
// column and IY the row. Images are gonum dense matrices of Rows x Cols.
//
// All functions are pure: they keep no state and may be called repeatedly
// with different weight arrays, e.g. one call per event frame.
package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned when there are no pixels to rasterize.
	ErrEmpty = errors.New("no pixels")

	// ErrLengthMismatch is returned when parallel arrays differ in length.
	ErrLengthMismatch = errors.New("array length mismatch")

	// ErrScale is returned for a non-positive pixel scale.
	ErrScale = errors.New("pixel scale must be positive")
)

// Offset shifts the index origin, in pixels. Index = round(c/scale) + offset.
type Offset struct {
	X int `json:"x" toml:"x" yaml:"x"`
	Y int `json:"y" toml:"y" yaml:"y"`
}

// Size is an image size in pixels.
type Size struct {
	Rows int `json:"rows" toml:"rows" yaml:"rows"`
	Cols int `json:"cols" toml:"cols" yaml:"cols"`
}

// Indexes holds per-pixel image indexes in the order of the source
// coordinate arrays.
type Indexes struct {
	IX []int `json:"ix"`
	IY []int `json:"iy"`
}

// Size returns the number of pixels.
func (ix *Indexes) Size() int { return len(ix.IX) }

// PixelIndexes converts x and y coordinates into integer indexes:
//
//	index = round((coordinate - origin) / scale)
//
// With a nil offset the origin is the minimum of each coordinate array, so
// the smallest index on both axes is 0. An explicit offset places the
// origin at -offset*scale; indexes may then be negative.
func PixelIndexes(x, y []float64, scale float64, offset *Offset) (*Indexes, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: x has %d values, y has %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: %g", ErrScale, scale)
	}

	var x0, y0 float64
	if offset == nil {
		x0, y0 = floats.Min(x), floats.Min(y)
	} else {
		x0, y0 = -float64(offset.X)*scale, -float64(offset.Y)*scale
	}

	res := &Indexes{IX: make([]int, len(x)), IY: make([]int, len(y))}
	for i := range x {
		res.IX[i] = int(math.Round((x[i] - x0) / scale))
		res.IY[i] = int(math.Round((y[i] - y0) / scale))
	}
	return res, nil
}

// Bounds returns the smallest image holding all non-negative indexes:
// (max(iy)+1) x (max(ix)+1).
func Bounds(ix, iy []int) Size {
	var s Size
	for i := range ix {
		if ix[i]+1 > s.Cols {
			s.Cols = ix[i] + 1
		}
	}
	for i := range iy {
		if iy[i]+1 > s.Rows {
			s.Rows = iy[i] + 1
		}
	}
	return s
}

// Image is an accumulated pixel image.
type Image struct {
	*mat.Dense

	// Dropped counts pixels whose indexes fell outside the image.
	Dropped int
}

// FromPixelArrays builds an image from index arrays. Every pixel i adds
// w[i] (1 when w is nil) into cell (iy[i], ix[i]); pixels sharing a cell
// accumulate. size defaults to Bounds(ix, iy). Pixels with negative or
// out-of-size indexes are skipped and counted in Dropped.
func FromPixelArrays(ix, iy []int, w []float64, size *Size) (*Image, error) {
	if len(ix) != len(iy) {
		return nil, fmt.Errorf("%w: ix has %d values, iy has %d", ErrLengthMismatch, len(ix), len(iy))
	}
	if w != nil && len(w) != len(ix) {
		return nil, fmt.Errorf("%w: %d weights for %d pixels", ErrLengthMismatch, len(w), len(ix))
	}

	s := Bounds(ix, iy)
	if size != nil {
		s = *size
	}
	if s.Rows <= 0 || s.Cols <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrEmpty, s.Rows, s.Cols)
	}

	img := &Image{Dense: mat.NewDense(s.Rows, s.Cols, nil)}
	for i := range ix {
		r, c := iy[i], ix[i]
		if r < 0 || c < 0 || r >= s.Rows || c >= s.Cols {
			img.Dropped++
			continue
		}
		v := 1.0
		if w != nil {
			v = w[i]
		}
		img.Set(r, c, img.At(r, c)+v)
	}
	return img, nil
}
