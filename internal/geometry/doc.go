// Package geometry loads detector geometry description files and computes
// physical pixel coordinates for segmented area detectors.
//
// A geometry file lists rigid detector objects, one record per line. Each
// record names the object, its parent, and the object's placement in the
// parent frame: a translation and a set of rotation and tilt angles. Leaf
// records additionally describe a local pixel layout (a segment). After
// loading, the objects form a single tree rooted at the top detector object.
//
// # File Format
//
//	# HDR     any header text
//	# KEY     value text, stored in the comment dictionary under KEY
//	QUAD:V1 0  IP 0    0  0 0   0 0 0 0
//	SEG     0  QUAD:V1 0   10 10 0   0 0 0 0   1.0 2 2
//
// Record fields, in order:
//
//	OBJ-NAME OBJ-IND PARENT-NAME PARENT-IND X0 Y0 Z0 ROT-Z TILT-X TILT-Y TILT-Z [SHAPE...]
//
// The parent name IP (interaction point) marks an explicit root. Trailing
// shape fields are either "PITCH ROWS COLS", "PITCH-X PITCH-Y ROWS COLS",
// or "@FILE" naming a per-pixel table relative to the geometry file. An
// object without shape fields is a segment if its name is a registered
// segment type (see SegmentByName), otherwise it is a composite.
//
// Malformed lines are skipped and counted; they never abort the load.
//
// # Coordinate Frames
//
// Pixel coordinates of every segment are transformed leaf-to-root. For each
// object on the path the local coordinates are rotated about Z by
// ROT-Z+TILT-Z, then about Y by TILT-Y, then about X by TILT-X, and finally
// shifted by (X0, Y0, Z0). Angles are in degrees; lengths are in the units
// of the file (conventionally micrometers).
//
// # Thread Safety
//
// An Access is immutable after construction. Coordinate arrays are computed
// on first use under a lock and cached, so an Access may be shared between
// goroutines. Returned slices are shared with the cache and must not be
// modified.
package geometry
