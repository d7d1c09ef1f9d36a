package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridOverlay(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{128, 128, 128, 255})

	result, err := GridOverlay(img, 25, false, "#FF0000")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), result.Bounds())
}

func TestGridOverlay_GridLines(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{0, 0, 0, 255})

	result, err := GridOverlay(img, 25, false, "#FF0000FF")
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, result.NRGBAAt(25, 50), "grid line at x=25")
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, result.NRGBAAt(15, 15), "background at (15,15)")
}

func TestGridOverlay_DoesNotModifySource(t *testing.T) {
	img := createInMemoryImage(50, 50, color.NRGBA{0, 0, 0, 255})

	_, err := GridOverlay(img, 10, true, "#FFFFFF")
	require.NoError(t, err)

	r, _, _, _ := img.At(10, 10).RGBA()
	assert.Zero(t, r, "source image was modified")
}

func TestGridOverlay_InvalidSpacing(t *testing.T) {
	img := createInMemoryImage(10, 10, color.NRGBA{0, 0, 0, 255})

	for _, spacing := range []int{0, -5} {
		_, err := GridOverlay(img, spacing, false, "")
		assert.Error(t, err, "spacing %d", spacing)
	}
}

func TestGridOverlay_DefaultColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{128, 128, 128, 255})

	for _, hex := range []string{"", "not-a-color"} {
		result, err := GridOverlay(img, 50, false, hex)
		require.NoError(t, err)

		c := result.NRGBAAt(50, 10)
		assert.Equal(t, uint8(255), c.R, "color %q", hex)
		assert.Equal(t, uint8(128), c.A, "color %q", hex)
	}
}

func TestDrawGrid_Labels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	var labels [][2]int
	label := func(x, y int) (int, int) {
		labels = append(labels, [2]int{x, y})
		return x / 2, y / 2
	}

	drawGrid(img, GridOptions{Spacing: 10, Labels: true}, 2, label)

	assert.Equal(t, [][2]int{{20, 20}, {40, 20}, {20, 40}, {40, 40}}, labels)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"#00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#0000FF", color.NRGBA{0, 0, 255, 255}, false},
		{"#FFFFFF", color.NRGBA{255, 255, 255, 255}, false},
		{"#000000", color.NRGBA{0, 0, 0, 255}, false},
		{"#1a2b3c", color.NRGBA{26, 43, 60, 255}, false},
		{"FF0000", color.NRGBA{255, 0, 0, 255}, false},    // without #
		{"#FF000080", color.NRGBA{255, 0, 0, 128}, false}, // with alpha
		{"FF000080", color.NRGBA{255, 0, 0, 128}, false},  // without # with alpha
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
		{"#FF0000ZZ", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := parseHexColor(tt.hex)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}
	drawLabel(img, 10, 10, "50,-5", fg, bg)

	var hasText, hasBackground bool
	for y := 9; y < 20; y++ {
		for x := 9; x < 40; x++ {
			c := img.NRGBAAt(x, y)
			if c.R == 255 {
				hasText = true
			}
			if c.R == 0 && c.A == 180 {
				hasBackground = true
			}
		}
	}
	assert.True(t, hasText, "label should have text pixels")
	assert.True(t, hasBackground, "label should have background pixels")
}

func TestDrawLabel_BoundsCheck(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))

	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}

	assert.NotPanics(t, func() {
		drawLabel(img, 15, 15, "100,100", fg, bg)
		drawLabel(img, 0, 0, "0,0", fg, bg)
		drawLabel(img, -5, -5, "test", fg, bg)
		drawLabel(img, 10, 10, "", fg, bg)
	})
}
