package geometry

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RootParent is the reserved parent name marking a top-level object.
const RootParent = "IP"

// ObjectID identifies a geometry object within one file.
type ObjectID struct {
	Name  string
	Index int
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%s %d", id.Name, id.Index)
}

// Object is one rigid detector segment or a composite of segments, placed
// relative to its parent.
type Object struct {
	ID     ObjectID
	Parent ObjectID

	X0, Y0, Z0 float64 // translation in the parent frame
	RotZ       float64 // in-plane rotation, degrees
	TiltX      float64 // tilt corrections, degrees
	TiltY      float64
	TiltZ      float64

	// Segment is the local pixel layout; nil for composites.
	Segment Segment

	// Children are owned by this object, in file order.
	Children []*Object

	id       int // arena index
	parentID int // arena index of the parent, -1 when unresolved
	line     int // source line
	xform    transform
}

// IsSegment reports whether the object carries its own pixels.
func (o *Object) IsSegment() bool { return o.Segment != nil }

// Line returns the line number of the object's record.
func (o *Object) Line() int { return o.line }

func (o *Object) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %2d  parent: %-16s %2d  x0:%9.1f y0:%9.1f z0:%9.1f  rot_z:%6.1f  tilt x:%7.3f y:%7.3f z:%7.3f",
		o.ID.Name, o.ID.Index, o.Parent.Name, o.Parent.Index,
		o.X0, o.Y0, o.Z0, o.RotZ, o.TiltX, o.TiltY, o.TiltZ)
	if o.Segment != nil {
		fmt.Fprintf(&b, "  segment: %s (%d pixels)", o.Segment.Name(), o.Segment.Size())
	}
	return b.String()
}

// PrintGeo writes a one-line description of the object.
func (o *Object) PrintGeo(w io.Writer) {
	fmt.Fprintln(w, o.String())
}

// PrintGeoChildren writes the object and its children names.
func (o *Object) PrintGeoChildren(w io.Writer) {
	fmt.Fprintf(w, "%s  children: %d", o.ID, len(o.Children))
	for _, c := range o.Children {
		fmt.Fprintf(w, "  %s", c.ID)
	}
	fmt.Fprintln(w)
}

// walk visits the object's subtree depth-first, the object itself first and
// children in file order.
func (o *Object) walk(visit func(*Object)) {
	stack := []*Object{o}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// transform is the rigid-body placement of an object in its parent frame.
type transform struct {
	rot   *mat.Dense
	shift r3.Vec
}

func newTransform(o *Object) transform {
	return transform{
		rot:   rotationMatrix(o.RotZ+o.TiltZ, o.TiltY, o.TiltX),
		shift: r3.Vec{X: o.X0, Y: o.Y0, Z: o.Z0},
	}
}

// rotationMatrix returns Rx(ax)·Ry(ay)·Rz(az), angles in degrees: a point is
// rotated about Z first, then Y, then X.
func rotationMatrix(az, ay, ax float64) *mat.Dense {
	sz, cz := math.Sincos(az * math.Pi / 180)
	sy, cy := math.Sincos(ay * math.Pi / 180)
	sx, cx := math.Sincos(ax * math.Pi / 180)

	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})

	var ryz, r mat.Dense
	ryz.Mul(ry, rz)
	r.Mul(rx, &ryz)
	return &r
}

// apply transforms the coordinate arrays in place.
func (t transform) apply(x, y, z []float64) {
	m := t.rot
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	for i := range x {
		px, py, pz := x[i], y[i], z[i]
		x[i] = m00*px + m01*py + m02*pz + t.shift.X
		y[i] = m10*px + m11*py + m12*pz + t.shift.Y
		z[i] = m20*px + m21*py + m22*pz + t.shift.Z
	}
}

// rotate applies only the rotation part, for direction vectors.
func (t transform) rotate(v r3.Vec) r3.Vec {
	in := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var out mat.VecDense
	out.MulVec(t.rot, in)
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
