package imaging

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps normalized intensities in [0, 1] to colors by blending
// between evenly spaced stops.
//
// Stops are blended in CIE L*a*b* space so perceptual steps stay even across
// the map. The first stop is used for 0 and the last for 1.
type Colormap struct {
	Name  string
	stops []colorful.Color
}

var colormapStops = map[string][]string{
	"gray":    {"#000000", "#ffffff"},
	"viridis": {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"hot":     {"#000000", "#e60000", "#ffd200", "#ffffff"},
	"jet":     {"#00007f", "#0000ff", "#00ffff", "#7fff7f", "#ffff00", "#ff0000", "#7f0000"},
}

// Colormaps returns the names of the built-in colormaps, sorted.
func Colormaps() []string {
	names := make([]string, 0, len(colormapStops))
	for n := range colormapStops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewColormap returns a built-in colormap by name, or a custom one when name
// is a comma separated list of at least two hex colors such as
// "#000000,#ff0000".
//
// Parameters:
//   - name: A built-in name ("gray", "viridis", "hot", "jet") or a list of
//     hex stops. An empty name selects "gray".
//
// Returns:
//   - *Colormap: The colormap.
//   - error: Non-nil for unknown names or unparsable stops.
func NewColormap(name string) (*Colormap, error) {
	if name == "" {
		name = "gray"
	}
	hexes, ok := colormapStops[name]
	if !ok {
		hexes = strings.Split(name, ",")
		if len(hexes) < 2 {
			return nil, fmt.Errorf("unknown colormap %q", name)
		}
	}

	cm := &Colormap{Name: name, stops: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid colormap stop %q: %w", h, err)
		}
		cm.stops[i] = c
	}
	return cm, nil
}

// At returns the opaque color for intensity t. Values outside [0, 1] are
// clamped; NaN maps to the first stop.
func (cm *Colormap) At(t float64) color.NRGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	segs := len(cm.stops) - 1
	pos := t * float64(segs)
	i := int(pos)
	if i >= segs {
		i = segs - 1
	}
	c := cm.stops[i].BlendLab(cm.stops[i+1], pos-float64(i)).Clamped()

	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}

	var alpha uint8 = 255
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
