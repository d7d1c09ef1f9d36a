package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// RenderOptions controls how an intensity matrix is turned into a picture.
// The zero value renders the full matrix in gray at its natural size.
type RenderOptions struct {
	// Colormap is a built-in colormap name or a list of hex stops.
	Colormap string `json:"colormap,omitempty" toml:"colormap" yaml:"colormap"`

	// Min and Max fix the intensity range. When both are zero the range of
	// the rendered region is used.
	Min float64 `json:"min,omitempty" toml:"min" yaml:"min"`
	Max float64 `json:"max,omitempty" toml:"max" yaml:"max"`

	// Gamma applies a gamma correction after coloring; 0 or 1 disables it.
	Gamma float64 `json:"gamma,omitempty" toml:"gamma" yaml:"gamma"`

	// FlipY puts row 0 at the bottom, matching detector coordinates where y
	// grows upwards.
	FlipY bool `json:"flip_y,omitempty" toml:"flip_y" yaml:"flip_y"`

	// Zoom enlarges each matrix cell to Zoom x Zoom screen pixels.
	Zoom int `json:"zoom,omitempty" toml:"zoom" yaml:"zoom"`

	// Region limits rendering to part of the matrix, in cell indexes.
	Region *Region `json:"region,omitempty" toml:"region" yaml:"region"`

	// Grid draws an index grid every Grid.Spacing cells when non-zero.
	Grid GridOptions `json:"grid,omitempty" toml:"grid" yaml:"grid"`
}

// Render converts a matrix of intensities into an image.
//
// Cell (r, c) becomes pixel (c, r) before flipping, so columns run along X
// and rows along Y. Intensities are scaled linearly from [Min, Max] to the
// colormap. The processing order is: crop to Region, colorize, gamma, flip,
// zoom, and finally the grid overlay.
//
// Parameters:
//   - m: The intensity matrix, e.g. an accumulated raster image.
//   - opts: Rendering options.
//
// Returns:
//   - *image.NRGBA: The rendered image.
//   - error: Non-nil for an empty matrix, an invalid region, an unknown
//     colormap or a negative zoom.
func Render(m mat.Matrix, opts RenderOptions) (*image.NRGBA, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot render empty matrix")
	}
	if opts.Zoom < 0 {
		return nil, fmt.Errorf("invalid zoom %d", opts.Zoom)
	}

	region := Region{X1: 0, Y1: 0, X2: cols, Y2: rows}
	if opts.Region != nil {
		if err := opts.Region.within(cols, rows); err != nil {
			return nil, err
		}
		region = *opts.Region
	}

	cm, err := NewColormap(opts.Colormap)
	if err != nil {
		return nil, err
	}

	lo, hi := opts.Min, opts.Max
	if lo == 0 && hi == 0 {
		st := Stats(m, &region)
		lo, hi = st.Min, st.Max
	}
	span := hi - lo

	img := image.NewNRGBA(image.Rect(0, 0, region.Width(), region.Height()))
	for r := region.Y1; r < region.Y2; r++ {
		for c := region.X1; c < region.X2; c++ {
			t := 0.0
			if span > 0 {
				t = (m.At(r, c) - lo) / span
			}
			img.SetNRGBA(c-region.X1, r-region.Y1, cm.At(t))
		}
	}

	var out image.Image = img
	if opts.Gamma > 0 && opts.Gamma != 1 {
		out = adjust.Gamma(out, opts.Gamma)
	}
	if opts.FlipY {
		out = imaging.FlipV(out)
	}

	zoom := max(opts.Zoom, 1)
	if zoom > 1 {
		b := out.Bounds()
		out = imaging.Resize(out, b.Dx()*zoom, b.Dy()*zoom, imaging.NearestNeighbor)
	}

	res := imaging.Clone(out)
	if opts.Grid.Spacing > 0 {
		label := func(x, y int) (int, int) {
			cx := region.X1 + x/zoom
			cy := region.Y1 + y/zoom
			if opts.FlipY {
				cy = region.Y2 - 1 - y/zoom
			}
			return cx, cy
		}
		drawGrid(res, opts.Grid, zoom, label)
	}
	return res, nil
}

// ImageStats summarizes the intensities of a matrix region.
type ImageStats struct {
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
	NonZero int     `json:"non_zero"`
}

// Stats computes intensity statistics over region, or the whole matrix when
// region is nil. The region is assumed to be within the matrix.
func Stats(m mat.Matrix, region *Region) ImageStats {
	rows, cols := m.Dims()
	r := Region{X2: cols, Y2: rows}
	if region != nil {
		r = *region
	}

	st := ImageStats{Rows: r.Height(), Cols: r.Width(), Min: math.Inf(1), Max: math.Inf(-1)}
	for y := r.Y1; y < r.Y2; y++ {
		for x := r.X1; x < r.X2; x++ {
			v := m.At(y, x)
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
			st.Sum += v
			if v != 0 {
				st.NonZero++
			}
		}
	}
	if n := st.Rows * st.Cols; n > 0 {
		st.Mean = st.Sum / float64(n)
	} else {
		st.Min, st.Max = 0, 0
	}
	return st
}
