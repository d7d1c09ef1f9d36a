package geometry

// Verbosity is a bit-mask selecting which diagnostics are logged while
// loading and evaluating a geometry. It never changes results.
type Verbosity uint

const (
	// PrintFileInfo logs the loaded file and record counts.
	PrintFileInfo Verbosity = 1 << iota
	// PrintGeoList logs every parsed object.
	PrintGeoList
	// PrintParseWarnings logs each skipped malformed line and every object
	// left without pixels or children.
	PrintParseWarnings
	// PrintGeoChildren logs every object together with its children.
	PrintGeoChildren
	// PrintRelations logs parent resolution.
	PrintRelations
	// PrintCoords logs pixel coordinate evaluation.
	PrintCoords

	// PrintNone disables all diagnostics.
	PrintNone Verbosity = 0
	// PrintAll enables all diagnostics.
	PrintAll Verbosity = 0377
)

// Has reports whether all bits of flag are set.
func (v Verbosity) Has(flag Verbosity) bool {
	return v&flag == flag && flag != 0
}
