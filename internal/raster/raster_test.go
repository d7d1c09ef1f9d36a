package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelIndexes_DefaultOrigin(t *testing.T) {
	x := []float64{10, 11, 10, 11}
	y := []float64{10, 10, 11, 11}

	ix, err := PixelIndexes(x, y, 1.0, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1}, ix.IX)
	assert.Equal(t, []int{0, 0, 1, 1}, ix.IY)
	assert.Equal(t, 4, ix.Size())
}

func TestPixelIndexes_Rounding(t *testing.T) {
	x := []float64{-150, -100.4, 0, 124.9, 125.1}
	y := []float64{7, 7, 7, 7, 7}

	ix, err := PixelIndexes(x, y, 50, nil)
	require.NoError(t, err)
	// (x+150)/50 = 0, 0.992, 3, 5.498, 5.502
	assert.Equal(t, []int{0, 1, 3, 5, 6}, ix.IX)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, ix.IY)
}

func TestPixelIndexes_ExplicitOffset(t *testing.T) {
	x := []float64{-20, 0, 20}
	y := []float64{0, 10, -10}

	ix, err := PixelIndexes(x, y, 10, &Offset{X: 5, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 7}, ix.IX)
	assert.Equal(t, []int{1, 2, 0}, ix.IY)

	ix, err = PixelIndexes(x, y, 10, &Offset{})
	require.NoError(t, err)
	assert.Equal(t, []int{-2, 0, 2}, ix.IX)
	assert.Equal(t, []int{0, 1, -1}, ix.IY)
}

func TestPixelIndexes_Errors(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		scale float64
		want  error
	}{
		{"length mismatch", []float64{1, 2}, []float64{1}, 1, ErrLengthMismatch},
		{"empty", nil, nil, 1, ErrEmpty},
		{"zero scale", []float64{1}, []float64{1}, 0, ErrScale},
		{"negative scale", []float64{1}, []float64{1}, -2, ErrScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PixelIndexes(tt.x, tt.y, tt.scale, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBounds(t *testing.T) {
	assert.Equal(t, Size{Rows: 3, Cols: 5}, Bounds([]int{0, 4, -1}, []int{2, 0, 1}))
	assert.Equal(t, Size{}, Bounds(nil, nil))
	assert.Equal(t, Size{}, Bounds([]int{-3}, []int{-1}))
}

func TestFromPixelArrays_Accumulates(t *testing.T) {
	img, err := FromPixelArrays([]int{1, 1, 0}, []int{0, 0, 1}, []float64{3, 4, 0.5}, nil)
	require.NoError(t, err)

	rows, cols := img.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 7.0, img.At(0, 1))
	assert.Equal(t, 0.5, img.At(1, 0))
	assert.Equal(t, 0.0, img.At(0, 0))
	assert.Equal(t, 0, img.Dropped)
}

func TestFromPixelArrays_DefaultWeights(t *testing.T) {
	img, err := FromPixelArrays([]int{0, 1, 0, 1, 1}, []int{0, 0, 1, 1, 1}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, img.At(0, 0))
	assert.Equal(t, 1.0, img.At(0, 1))
	assert.Equal(t, 1.0, img.At(1, 0))
	assert.Equal(t, 2.0, img.At(1, 1))
}

func TestFromPixelArrays_ExplicitSizeDropsOutside(t *testing.T) {
	img, err := FromPixelArrays([]int{0, 3, -1, 1}, []int{0, 0, 0, 5}, nil, &Size{Rows: 2, Cols: 2})
	require.NoError(t, err)

	rows, cols := img.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1.0, img.At(0, 0))
	assert.Equal(t, 3, img.Dropped)
}

func TestFromPixelArrays_Errors(t *testing.T) {
	_, err := FromPixelArrays([]int{0}, []int{0, 1}, nil, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromPixelArrays([]int{0}, []int{0}, []float64{1, 2}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromPixelArrays(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = FromPixelArrays([]int{0}, []int{0}, nil, &Size{Rows: 0, Cols: 3})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFromPixelArrays_RepeatedCallsIndependent(t *testing.T) {
	ix, iy := []int{0, 1}, []int{0, 0}

	a, err := FromPixelArrays(ix, iy, []float64{1, 2}, nil)
	require.NoError(t, err)
	b, err := FromPixelArrays(ix, iy, []float64{10, 20}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, a.At(0, 1))
	assert.Equal(t, 20.0, b.At(0, 1))
}
