package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// GridOptions configures the index grid overlay.
type GridOptions struct {
	// Spacing is the distance between grid lines in matrix cells.
	Spacing int `json:"spacing,omitempty" toml:"spacing" yaml:"spacing"`
	// Labels prints the cell index at each grid crossing.
	Labels bool `json:"labels,omitempty" toml:"labels" yaml:"labels"`
	// Color is the line color as "#RRGGBB" or "#RRGGBBAA".
	Color string `json:"color,omitempty" toml:"color" yaml:"color"`
}

// GridOverlay draws a grid every spacing pixels on a copy of img. With
// showCoordinates each crossing is labeled with its pixel position.
func GridOverlay(img image.Image, spacing int, showCoordinates bool, gridColorHex string) (*image.NRGBA, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("invalid grid spacing %d", spacing)
	}
	bounds := img.Bounds()
	result := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	identity := func(x, y int) (int, int) { return x, y }
	drawGrid(result, GridOptions{Spacing: spacing, Labels: showCoordinates, Color: gridColorHex}, 1, identity)
	return result, nil
}

// drawGrid draws lines every opts.Spacing*zoom pixels. label maps a pixel
// position to the coordinates printed next to it.
func drawGrid(img *image.NRGBA, opts GridOptions, zoom int, label func(x, y int) (int, int)) {
	gridColor, err := parseHexColor(opts.Color)
	if err != nil {
		gridColor = color.NRGBA{255, 0, 0, 128} // Default: semi-transparent red
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	step := opts.Spacing * zoom

	for x := step; x < width; x += step {
		for y := 0; y < height; y++ {
			img.Set(x, y, gridColor)
		}
	}
	for y := step; y < height; y += step {
		for x := 0; x < width; x++ {
			img.Set(x, y, gridColor)
		}
	}

	if !opts.Labels {
		return
	}
	labelColor := color.NRGBA{255, 255, 255, 255}
	bgColor := color.NRGBA{0, 0, 0, 180}
	for y := step; y < height; y += step {
		for x := step; x < width; x += step {
			lx, ly := label(x, y)
			drawLabel(img, x+2, y+2, fmt.Sprintf("%d,%d", lx, ly), labelColor, bgColor)
		}
	}
}

// labelGlyphs is a 3x5 pixel font for digits, comma and minus.
var labelGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'-': {"000", "000", "111", "000", "000"},
}

// drawLabel draws a small text label with its top-left corner at (x, y).
// Characters without a glyph leave a gap.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	bounds := img.Bounds()
	in := func(px, py int) bool {
		return px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if in(x+dx, y+dy) {
				img.Set(x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range labelGlyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' && in(cx+col, y+row) {
					img.Set(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
