package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/detgeo-mcp/internal/raster"
)

// Coords holds flattened pixel coordinates and areas in the top object's
// frame, in depth-first segment order.
type Coords struct {
	X    []float64
	Y    []float64
	Z    []float64
	Area []float64
}

// Size returns the number of pixels.
func (c *Coords) Size() int { return len(c.X) }

// IndexOptions controls conversion of coordinates into image indexes.
type IndexOptions struct {
	// Scale is the pixel size in coordinate units; 0 selects PixelScaleSize.
	Scale float64
	// Offset places the origin in pixels; nil uses the coordinate minima.
	Offset *raster.Offset
}

// PixelCoords returns the pixel coordinates of every segment under the named
// object. An empty name selects the top object. Results are computed once
// and cached; the returned slices must not be modified.
func (a *Access) PixelCoords(name string, index int) (*Coords, error) {
	o, err := a.lookup(name, index)
	if err != nil {
		return nil, err
	}
	return a.coords(o), nil
}

// PixelAreas returns per-pixel areas in the order of PixelCoords.
func (a *Access) PixelAreas(name string, index int) ([]float64, error) {
	c, err := a.PixelCoords(name, index)
	if err != nil {
		return nil, err
	}
	return c.Area, nil
}

// PixelScaleSize returns the pitch of the first segment found depth-first
// under the named object.
func (a *Access) PixelScaleSize(name string, index int) (float64, error) {
	o, err := a.lookup(name, index)
	if err != nil {
		return 0, err
	}
	var seg Segment
	o.walk(func(n *Object) {
		if seg == nil && n.Segment != nil {
			seg = n.Segment
		}
	})
	if seg == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoSegment, o.ID)
	}
	return seg.PixelScaleSize(), nil
}

// PixelCoordIndexes converts the object's x and y pixel coordinates into
// image indexes.
func (a *Access) PixelCoordIndexes(name string, index int, opts IndexOptions) (*raster.Indexes, error) {
	c, err := a.PixelCoords(name, index)
	if err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale == 0 {
		if scale, err = a.PixelScaleSize(name, index); err != nil {
			return nil, err
		}
	}
	return raster.PixelIndexes(c.X, c.Y, scale, opts.Offset)
}

// Image rasterizes the object's pixels with the given weights (nil for 1).
func (a *Access) Image(name string, index int, opts IndexOptions, weights []float64) (*raster.Image, error) {
	ix, err := a.PixelCoordIndexes(name, index, opts)
	if err != nil {
		return nil, err
	}
	return raster.FromPixelArrays(ix.IX, ix.IY, weights, nil)
}

// coords returns the cached coordinates of o, computing them on first use.
func (a *Access) coords(o *Object) *Coords {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.cache[o.id]; ok {
		return c
	}
	c := a.evaluate(o)
	a.cache[o.id] = c
	if a.opts.Verbosity.Has(PrintCoords) {
		a.log.WithField("object", o.ID.String()).Debugf("evaluated %d pixel coordinates", c.Size())
	}
	return c
}

// evaluate transforms the local coordinates of every segment under o into
// the top frame. Each segment walks its own chain of ancestors, applying one
// object transform per step to the partially transformed coordinates.
func (a *Access) evaluate(o *Object) *Coords {
	c := &Coords{}
	o.walk(func(seg *Object) {
		if seg.Segment == nil {
			return
		}
		x, y, z := seg.Segment.LocalCoords()
		area := seg.Segment.PixelAreas()
		normal := r3.Vec{Z: 1}

		steps := 0
		for n := seg; n != nil; n = a.Parent(n) {
			n.xform.apply(x, y, z)
			normal = n.xform.rotate(normal)
			steps++
		}

		projection := math.Abs(normal.Z)
		for i := range area {
			area[i] *= projection
		}
		if a.opts.Verbosity.Has(PrintCoords) {
			a.log.WithField("object", seg.ID.String()).Debugf("%d pixels through %d transforms, projection %.6f",
				len(x), steps, projection)
		}

		c.X = append(c.X, x...)
		c.Y = append(c.Y, y...)
		c.Z = append(c.Z, z...)
		c.Area = append(c.Area, area...)
	})
	return c
}
