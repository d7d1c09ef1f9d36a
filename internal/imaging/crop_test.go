package imaging

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrop(t *testing.T) {
	tests := []struct {
		name          string
		r             Region
		scale         float64
		width, height int
	}{
		{"unscaled", Region{0, 0, 50, 50}, 1.0, 50, 50},
		{"scale up", Region{0, 0, 50, 50}, 2.0, 100, 100},
		{"scale down", Region{0, 0, 100, 100}, 0.5, 50, 50},
	}

	img := createPatternImage(100, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, tt.r, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.width, result.Bounds().Dx())
			assert.Equal(t, tt.height, result.Bounds().Dy())
		})
	}
}

func TestCrop_Errors(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		r    Region
	}{
		{"negative x1", Region{-1, 0, 50, 50}},
		{"negative y1", Region{0, -1, 50, 50}},
		{"x2 past width", Region{0, 0, 101, 50}},
		{"y2 past height", Region{0, 0, 50, 101}},
		{"x1 equals x2", Region{50, 0, 50, 50}},
		{"y1 equals y2", Region{0, 50, 50, 50}},
		{"x1 greater than x2", Region{60, 0, 50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.r, 1.0)
			assert.Error(t, err)
		})
	}
}

func TestCrop_VerifyContent(t *testing.T) {
	img := createPatternImage(100, 100)

	// bottom-right quadrant is white
	result, err := Crop(img, Region{50, 50, 100, 100}, 1.0)
	require.NoError(t, err)

	r, g, b, _ := result.At(10, 10).RGBA()
	assert.Equal(t, [3]uint32{255, 255, 255}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestQuadrantRegion(t *testing.T) {
	tests := []struct {
		name string
		want Region
	}{
		{"top-left", Region{0, 0, 50, 40}},
		{"top-right", Region{50, 0, 100, 40}},
		{"bottom-left", Region{0, 40, 50, 80}},
		{"bottom-right", Region{50, 40, 100, 80}},
		{"top-half", Region{0, 0, 100, 40}},
		{"bottom-half", Region{0, 40, 100, 80}},
		{"left-half", Region{0, 0, 50, 80}},
		{"right-half", Region{50, 0, 100, 80}},
		{"center", Region{25, 20, 75, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuadrantRegion(100, 80, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuadrantRegion_Invalid(t *testing.T) {
	_, err := QuadrantRegion(100, 100, "middle")
	assert.Error(t, err)

	// a 1x1 area has no top-left quadrant
	_, err = QuadrantRegion(1, 1, "top-left")
	assert.Error(t, err)
}
