package geometry

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintListOfGeos writes one line per object in file order.
func (a *Access) PrintListOfGeos(w io.Writer) {
	for _, o := range a.objects {
		o.PrintGeo(w)
	}
}

// PrintListOfGeosChildren writes every object with its children.
func (a *Access) PrintListOfGeosChildren(w io.Writer) {
	for _, o := range a.objects {
		o.PrintGeoChildren(w)
	}
}

// PrintCommentsFromDict writes the comment dictionary sorted by key.
func (a *Access) PrintCommentsFromDict(w io.Writer) {
	for _, k := range a.commentKeys() {
		fmt.Fprintf(w, "%-10s %s\n", k, a.comments[k])
	}
}

// PrintPixelCoords writes the size and leading values of the pixel
// coordinate arrays of the named object (top object for an empty name).
func (a *Access) PrintPixelCoords(w io.Writer, name string, index int) error {
	c, err := a.PixelCoords(name, index)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "size=%d\n", c.Size())
	for _, arr := range []struct {
		label string
		vals  []float64
	}{{"X", c.X}, {"Y", c.Y}, {"Z", c.Z}} {
		n := len(arr.vals)
		if n > 10 {
			n = 10
		}
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			parts[i] = fmt.Sprintf("%10.1f", arr.vals[i])
		}
		fmt.Fprintf(w, "%s: %s", arr.label, strings.Join(parts, ", "))
		if len(arr.vals) > n {
			fmt.Fprint(w, ", ...")
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteTo writes the geometry back in file format: comments first, then
// records in file order.
func (a *Access) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, k := range a.commentKeys() {
		if v := a.comments[k]; v != "" {
			fmt.Fprintf(&b, "# %-10s %s\n", k, v)
		} else {
			fmt.Fprintf(&b, "# %s\n", k)
		}
	}
	b.WriteString("\n")
	for _, o := range a.objects {
		fields := []string{
			o.ID.Name, fmt.Sprint(o.ID.Index), o.Parent.Name, fmt.Sprint(o.Parent.Index),
			formatFloat(o.X0), formatFloat(o.Y0), formatFloat(o.Z0),
			formatFloat(o.RotZ), formatFloat(o.TiltX), formatFloat(o.TiltY), formatFloat(o.TiltZ),
		}
		if o.Segment != nil {
			fields = append(fields, o.Segment.shapeFields()...)
		}
		b.WriteString(strings.Join(fields, " "))
		b.WriteString("\n")
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (a *Access) commentKeys() []string {
	keys := make([]string, 0, len(a.comments))
	for k := range a.comments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
