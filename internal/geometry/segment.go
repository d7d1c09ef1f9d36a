package geometry

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Segment describes the local pixel layout of a leaf geometry object.
//
// Local coordinates are expressed in the segment's own frame, before any
// object transform is applied. Implementations return freshly allocated
// slices so callers may transform them in place.
type Segment interface {
	// Name identifies the layout, e.g. "MTRX:512:512:75:75".
	Name() string
	// Size is the number of pixels.
	Size() int
	// PixelScaleSize is the nominal pixel pitch used as rasterization scale.
	PixelScaleSize() float64
	// LocalCoords returns per-pixel local coordinates.
	LocalCoords() (x, y, z []float64)
	// PixelAreas returns per-pixel areas in the segment plane.
	PixelAreas() []float64

	// shapeFields returns the trailing record fields that reproduce this
	// layout, or nil when the object name alone selects it.
	shapeFields() []string
}

// MatrixSegment is a regular grid of Rows x Cols pixels. Pixel (r, c) sits
// at x = c*PitchX, y = r*PitchY in row-major order, column fastest.
type MatrixSegment struct {
	Rows   int
	Cols   int
	PitchX float64
	PitchY float64

	name  string
	named bool
}

// NewMatrixSegment returns a regular grid with square pixels.
func NewMatrixSegment(rows, cols int, pitch float64) *MatrixSegment {
	return &MatrixSegment{Rows: rows, Cols: cols, PitchX: pitch, PitchY: pitch}
}

func (s *MatrixSegment) Name() string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("MTRX:%d:%d:%g:%g", s.Rows, s.Cols, s.PitchY, s.PitchX)
}

func (s *MatrixSegment) Size() int { return s.Rows * s.Cols }

func (s *MatrixSegment) PixelScaleSize() float64 { return math.Min(s.PitchX, s.PitchY) }

func (s *MatrixSegment) LocalCoords() (x, y, z []float64) {
	n := s.Size()
	x = make([]float64, n)
	y = make([]float64, n)
	z = make([]float64, n)
	i := 0
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			x[i] = float64(c) * s.PitchX
			y[i] = float64(r) * s.PitchY
			i++
		}
	}
	return x, y, z
}

func (s *MatrixSegment) PixelAreas() []float64 {
	a := make([]float64, s.Size())
	area := s.PitchX * s.PitchY
	for i := range a {
		a[i] = area
	}
	return a
}

func (s *MatrixSegment) shapeFields() []string {
	if s.named {
		return nil
	}
	if s.PitchX == s.PitchY {
		return []string{formatFloat(s.PitchX), strconv.Itoa(s.Rows), strconv.Itoa(s.Cols)}
	}
	return []string{formatFloat(s.PitchX), formatFloat(s.PitchY), strconv.Itoa(s.Rows), strconv.Itoa(s.Cols)}
}

// AsicSegment is a sensor tiled from AsicRows x AsicCols identical ASICs of
// Rows x Cols pixels each. Pixels on either side of an internal ASIC
// boundary are WidePitch wide along the axis crossing that boundary.
// Local coordinates are pixel centers, centered on the sensor, in row-major
// order with the column fastest.
type AsicSegment struct {
	SegName   string
	AsicRows  int
	AsicCols  int
	Rows      int
	Cols      int
	Pitch     float64
	WidePitch float64
}

const (
	cspadRows      = 185
	cspadCols      = 388
	cspadPitch     = 109.92
	cspadWidePitch = 274.80
)

// Built-in sensor layouts, pitches in micrometers.
var (
	cspad2x1 = &AsicSegment{SegName: "SENS2X1:V1", AsicRows: 1, AsicCols: 2,
		Rows: cspadRows, Cols: cspadCols / 2, Pitch: cspadPitch, WidePitch: cspadWidePitch}
	epix100 = &AsicSegment{SegName: "EPIX100:V1", AsicRows: 2, AsicCols: 2,
		Rows: 352, Cols: 384, Pitch: 50, WidePitch: 175}
	epix10ka = &AsicSegment{SegName: "EPIX10KA:V1", AsicRows: 2, AsicCols: 2,
		Rows: 176, Cols: 192, Pitch: 100, WidePitch: 250}
	jungfrau = &AsicSegment{SegName: "JUNGFRAU:V1", AsicRows: 2, AsicCols: 4,
		Rows: 256, Cols: 256, Pitch: 75, WidePitch: 187.5}
)

func (s *AsicSegment) Name() string            { return s.SegName }
func (s *AsicSegment) Size() int               { return s.AsicRows * s.Rows * s.AsicCols * s.Cols }
func (s *AsicSegment) PixelScaleSize() float64 { return s.Pitch }

// widths returns the pixel widths along one axis of asics ASICs with n
// pixels each.
func (s *AsicSegment) widths(asics, n int) []float64 {
	w := make([]float64, asics*n)
	for i := range w {
		w[i] = s.Pitch
		k := i % n
		if (k == n-1 && i < len(w)-1) || (k == 0 && i > 0) {
			w[i] = s.WidePitch
		}
	}
	return w
}

// centers returns pixel centers along one axis, centered on zero.
func (s *AsicSegment) centers(asics, n int) []float64 {
	w := s.widths(asics, n)
	total := 0.0
	for _, v := range w {
		total += v
	}
	c := make([]float64, len(w))
	edge := -total / 2
	for i, v := range w {
		c[i] = edge + v/2
		edge += v
	}
	return c
}

func (s *AsicSegment) LocalCoords() (x, y, z []float64) {
	n := s.Size()
	x = make([]float64, n)
	y = make([]float64, n)
	z = make([]float64, n)
	cols := s.centers(s.AsicCols, s.Cols)
	rows := s.centers(s.AsicRows, s.Rows)
	i := 0
	for _, yr := range rows {
		for _, xc := range cols {
			x[i] = xc
			y[i] = yr
			i++
		}
	}
	return x, y, z
}

func (s *AsicSegment) PixelAreas() []float64 {
	a := make([]float64, s.Size())
	wc := s.widths(s.AsicCols, s.Cols)
	wr := s.widths(s.AsicRows, s.Rows)
	i := 0
	for _, h := range wr {
		for _, w := range wc {
			a[i] = w * h
			i++
		}
	}
	return a
}

func (s *AsicSegment) shapeFields() []string { return nil }

// TableSegment is an irregular segment with an explicit per-pixel table of
// local offsets and areas.
type TableSegment struct {
	X, Y, Z []float64
	Area    []float64
	Pitch   float64

	// Source is the table path as written in the geometry record.
	Source string
}

func (s *TableSegment) Name() string            { return "TABLE:" + s.Source }
func (s *TableSegment) Size() int               { return len(s.X) }
func (s *TableSegment) PixelScaleSize() float64 { return s.Pitch }

func (s *TableSegment) LocalCoords() (x, y, z []float64) {
	return append([]float64(nil), s.X...), append([]float64(nil), s.Y...), append([]float64(nil), s.Z...)
}

func (s *TableSegment) PixelAreas() []float64 {
	return append([]float64(nil), s.Area...)
}

func (s *TableSegment) shapeFields() []string { return []string{"@" + s.Source} }

// LoadTableSegment reads a per-pixel table file. Each data line holds
// "x y [z [area]]"; "# PITCH value" sets the nominal pitch. Without an
// explicit pitch, the smallest distance between consecutive pixels is used.
// Missing areas default to pitch squared.
func LoadTableSegment(path, source string) (*TableSegment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel table: %w", err)
	}

	seg := &TableSegment{Source: source}
	var hasArea []bool

	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == commentMarker {
			fields := strings.Fields(strings.TrimLeft(line, "# "))
			if len(fields) == 2 && fields[0] == "PITCH" {
				p, err := strconv.ParseFloat(fields[1], 64)
				if err != nil || p <= 0 {
					return nil, fmt.Errorf("pixel table line %d: invalid pitch %q", lineNo, fields[1])
				}
				seg.Pitch = p
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 4 {
			return nil, fmt.Errorf("pixel table line %d: expected 2-4 fields, got %d", lineNo, len(fields))
		}
		vals := make([]float64, 4)
		for i, f := range fields {
			v, err := parseFinite(f)
			if err != nil {
				return nil, fmt.Errorf("pixel table line %d: %w", lineNo, err)
			}
			vals[i] = v
		}
		seg.X = append(seg.X, vals[0])
		seg.Y = append(seg.Y, vals[1])
		seg.Z = append(seg.Z, vals[2])
		seg.Area = append(seg.Area, vals[3])
		hasArea = append(hasArea, len(fields) == 4)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan pixel table: %w", err)
	}
	if len(seg.X) == 0 {
		return nil, fmt.Errorf("pixel table %s has no pixels", path)
	}

	if seg.Pitch == 0 {
		seg.Pitch = minNeighbourDistance(seg.X, seg.Y)
	}
	for i := range seg.Area {
		if !hasArea[i] {
			seg.Area[i] = seg.Pitch * seg.Pitch
		}
	}
	return seg, nil
}

// minNeighbourDistance returns the smallest positive distance between
// consecutive table entries, or 1 when the table has a single pixel.
func minNeighbourDistance(x, y []float64) float64 {
	best := math.Inf(1)
	for i := 1; i < len(x); i++ {
		d := math.Hypot(x[i]-x[i-1], y[i]-y[i-1])
		if d > 0 && d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 1
	}
	return best
}

// SegmentByName returns the built-in layout selected by an object name:
//
//	MTRX:rows:cols:pitchRow:pitchCol  regular matrix
//	PNCCD:V1                          512x512 matrix, 75 um pixels
//	SENS2X1:V1                        CSPAD 2x1 sensor
//	EPIX100:V1                        ePix100, 2x2 ASICs of 352x384
//	EPIX10KA:V1                       ePix10ka, 2x2 ASICs of 176x192
//	JUNGFRAU:V1                       Jungfrau, 2x4 ASICs of 256x256
func SegmentByName(name string) (Segment, bool) {
	for _, s := range []*AsicSegment{cspad2x1, epix100, epix10ka, jungfrau} {
		if name == s.SegName {
			c := *s
			return &c, true
		}
	}
	switch {
	case name == "PNCCD:V1":
		return &MatrixSegment{Rows: 512, Cols: 512, PitchX: 75, PitchY: 75, name: name, named: true}, true
	case strings.HasPrefix(name, "MTRX:"):
		parts := strings.Split(name, ":")
		if len(parts) != 5 {
			return nil, false
		}
		rows, err1 := strconv.Atoi(parts[1])
		cols, err2 := strconv.Atoi(parts[2])
		pRow, err3 := strconv.ParseFloat(parts[3], 64)
		pCol, err4 := strconv.ParseFloat(parts[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, false
		}
		if rows <= 0 || cols <= 0 || pRow <= 0 || pCol <= 0 {
			return nil, false
		}
		return &MatrixSegment{Rows: rows, Cols: cols, PitchX: pCol, PitchY: pRow, name: name, named: true}, true
	}
	return nil, false
}
