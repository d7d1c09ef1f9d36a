package geometry

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixSegment_LocalCoords(t *testing.T) {
	s := &MatrixSegment{Rows: 2, Cols: 3, PitchX: 10, PitchY: 20}

	x, y, z := s.LocalCoords()
	assert.Equal(t, []float64{0, 10, 20, 0, 10, 20}, x)
	assert.Equal(t, []float64{0, 0, 0, 20, 20, 20}, y)
	assert.Equal(t, make([]float64, 6), z)
	assert.Equal(t, []float64{200, 200, 200, 200, 200, 200}, s.PixelAreas())
	assert.Equal(t, 10.0, s.PixelScaleSize())
	assert.Equal(t, "MTRX:2:3:20:10", s.Name())
}

func TestMatrixSegment_FreshSlices(t *testing.T) {
	s := NewMatrixSegment(1, 2, 5)
	x1, _, _ := s.LocalCoords()
	x1[0] = 99
	x2, _, _ := s.LocalCoords()
	assert.Equal(t, 0.0, x2[0])
}

func TestSegmentByName(t *testing.T) {
	tests := []struct {
		name  string
		ok    bool
		size  int
		pitch float64
	}{
		{"MTRX:4:8:50:75", true, 32, 50},
		{"PNCCD:V1", true, 512 * 512, 75},
		{"SENS2X1:V1", true, 185 * 388, 109.92},
		{"EPIX100:V1", true, 704 * 768, 50},
		{"EPIX10KA:V1", true, 352 * 384, 100},
		{"JUNGFRAU:V1", true, 512 * 1024, 75},
		{"MTRX:4:8:50", false, 0, 0},
		{"MTRX:0:8:50:50", false, 0, 0},
		{"MTRX:a:8:50:50", false, 0, 0},
		{"QUAD", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := SegmentByName(tt.name)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.size, s.Size())
			assert.Equal(t, tt.pitch, s.PixelScaleSize())
			assert.Equal(t, tt.name, s.Name())
			assert.Nil(t, s.shapeFields())
		})
	}
}

func TestSegmentByName_MatrixPitchOrder(t *testing.T) {
	s, ok := SegmentByName("MTRX:2:2:50:75")
	require.True(t, ok)
	x, y, _ := s.LocalCoords()
	// pitch along rows is y, pitch along columns is x
	assert.Equal(t, []float64{0, 75, 0, 75}, x)
	assert.Equal(t, []float64{0, 0, 50, 50}, y)
}

func TestSegmentByName_ReturnsCopy(t *testing.T) {
	s, ok := SegmentByName("JUNGFRAU:V1")
	require.True(t, ok)
	s.(*AsicSegment).Pitch = 1

	again, _ := SegmentByName("JUNGFRAU:V1")
	assert.Equal(t, 75.0, again.PixelScaleSize())
}

func TestCspad2x1Segment(t *testing.T) {
	s := cspad2x1
	cols := s.centers(s.AsicCols, s.Cols)
	require.Len(t, cols, cspadCols)

	assert.InDelta(t, -cspadWidePitch/2, cols[193], 1e-9)
	assert.InDelta(t, cspadWidePitch/2, cols[194], 1e-9)
	assert.InDelta(t, cspadWidePitch+cspadPitch/2, cols[195], 1e-9)
	for c := 0; c < cspadCols/2; c++ {
		assert.InDelta(t, -cols[cspadCols-1-c], cols[c], 1e-9, "column %d", c)
	}

	x, y, _ := s.LocalCoords()
	require.Len(t, x, s.Size())
	assert.InDelta(t, -92*cspadPitch, y[0], 1e-9)
	assert.InDelta(t, 92*cspadPitch, y[len(y)-1], 1e-9)

	areas := s.PixelAreas()
	assert.InDelta(t, cspadPitch*cspadPitch, areas[0], 1e-9)
	assert.InDelta(t, cspadPitch*cspadWidePitch, areas[193], 1e-9)
	assert.InDelta(t, cspadPitch*cspadWidePitch, areas[194], 1e-9)
	assert.InDelta(t, cspadPitch*cspadPitch, areas[195], 1e-9)
}

func TestAsicSegment_WidePixels(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		wideRows   []int
		wideCols   []int
		pitch      float64
		wide       float64
	}{
		{"EPIX100:V1", 704, 768, []int{351, 352}, []int{383, 384}, 50, 175},
		{"EPIX10KA:V1", 352, 384, []int{175, 176}, []int{191, 192}, 100, 250},
		{"JUNGFRAU:V1", 512, 1024, []int{255, 256}, []int{255, 256, 511, 512, 767, 768}, 75, 187.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := SegmentByName(tt.name)
			require.True(t, ok)
			s := seg.(*AsicSegment)

			cols := s.centers(s.AsicCols, s.Cols)
			rows := s.centers(s.AsicRows, s.Rows)
			require.Len(t, cols, tt.cols)
			require.Len(t, rows, tt.rows)

			// layouts are symmetric about the sensor center
			for c := range cols {
				assert.InDelta(t, -cols[len(cols)-1-c], cols[c], 1e-9, "column %d", c)
			}
			for r := range rows {
				assert.InDelta(t, -rows[len(rows)-1-r], rows[r], 1e-9, "row %d", r)
			}

			wc := s.widths(s.AsicCols, s.Cols)
			for c, w := range wc {
				want := tt.pitch
				if slices.Contains(tt.wideCols, c) {
					want = tt.wide
				}
				assert.Equal(t, want, w, "column %d", c)
			}
			wr := s.widths(s.AsicRows, s.Rows)
			for r, w := range wr {
				want := tt.pitch
				if slices.Contains(tt.wideRows, r) {
					want = tt.wide
				}
				assert.Equal(t, want, w, "row %d", r)
			}

			// center spacing between the last regular and first wide column
			c := tt.wideCols[0]
			assert.InDelta(t, tt.pitch/2+tt.wide/2, cols[c]-cols[c-1], 1e-9)

			areas := s.PixelAreas()
			require.Len(t, areas, s.Size())
			r := tt.wideRows[0]
			assert.InDelta(t, tt.pitch*tt.pitch, areas[0], 1e-9)
			assert.InDelta(t, tt.pitch*tt.wide, areas[c], 1e-9)
			assert.InDelta(t, tt.wide*tt.wide, areas[r*tt.cols+c], 1e-9)

			x, y, _ := s.LocalCoords()
			assert.Equal(t, cols[c], x[r*tt.cols+c])
			assert.Equal(t, rows[r], y[r*tt.cols+c])
		})
	}
}

func TestLoadTableSegment(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit pitch and areas", func(t *testing.T) {
		path := writeFile(t, dir, "pix.txt", "# PITCH 2\n0 0\n2 0\n\n0 2 1 8\n")
		s, err := LoadTableSegment(path, "pix.txt")
		require.NoError(t, err)
		assert.Equal(t, 3, s.Size())
		assert.Equal(t, 2.0, s.PixelScaleSize())
		assert.Equal(t, []float64{4, 4, 8}, s.PixelAreas())
		assert.Equal(t, []float64{0, 0, 1}, s.Z)
		assert.Equal(t, []string{"@pix.txt"}, s.shapeFields())
	})

	t.Run("pitch from neighbours", func(t *testing.T) {
		path := writeFile(t, dir, "auto.txt", "0 0\n3 4\n3 4\n6 4\n")
		s, err := LoadTableSegment(path, "auto.txt")
		require.NoError(t, err)
		assert.Equal(t, 3.0, s.Pitch)
		assert.Equal(t, 9.0, s.Area[0])
	})

	t.Run("errors", func(t *testing.T) {
		for name, content := range map[string]string{
			"empty.txt":  "# PITCH 1\n",
			"fields.txt": "1 2 3 4 5\n",
			"nan.txt":    "NaN 1\n",
			"pitch.txt":  "# PITCH -1\n0 0\n",
		} {
			path := writeFile(t, dir, name, content)
			_, err := LoadTableSegment(path, name)
			assert.Error(t, err, name)
		}
		_, err := LoadTableSegment(filepath.Join(dir, "missing.txt"), "missing.txt")
		assert.Error(t, err)
	})
}

func TestNew_TableSegmentRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pix.txt", "# PITCH 10\n0 0\n10 0\n")
	path := writeFile(t, dir, "geo.data", "DET 0 IP 0  5 5 0  0 0 0 0\nTBL 0 DET 0  0 0 0  0 0 0 0  @pix.txt\n")

	a, err := New(path, Options{})
	require.NoError(t, err)

	c, err := a.PixelCoords("", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 15}, c.X)
	assert.Equal(t, []float64{100, 100}, c.Area)

	s, err := a.PixelScaleSize("TBL", 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s)
}
