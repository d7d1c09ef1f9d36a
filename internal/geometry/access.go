package geometry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Options configures loading and diagnostics.
type Options struct {
	// Verbosity selects diagnostics; see the Print* constants.
	Verbosity Verbosity

	// Logger receives diagnostics. Nil discards them.
	Logger logrus.FieldLogger

	// StrictRoots rejects files with more than one parentless object
	// instead of picking the first as the top object.
	StrictRoots bool
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Access owns a loaded geometry tree, its comment dictionary and the
// cached coordinate arrays.
type Access struct {
	opts     Options
	log      logrus.FieldLogger
	objects  []*Object
	byID     map[ObjectID]*Object
	top      *Object
	comments Comments
	stats    LoadStats

	mu    sync.Mutex
	cache map[int]*Coords
}

// New loads the geometry file at path. It fails when the file cannot be
// read, holds no valid records, or its parent relations are inconsistent.
func New(path string, opts Options) (*Access, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}
	a, err := build(content, filepath.Dir(path), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	a.stats.Path = path
	if opts.Verbosity.Has(PrintFileInfo) {
		a.log.WithField("path", path).Infof("loaded %d objects, %d comments, %d malformed lines",
			a.stats.Records, a.stats.Comments, a.stats.Malformed)
	}
	return a, nil
}

// Load reads a geometry description from r. Relative pixel table paths are
// resolved against the working directory.
func Load(r io.Reader, opts Options) (*Access, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read geometry: %w", err)
	}
	return build(buf.Bytes(), ".", opts)
}

func build(content []byte, dir string, opts Options) (*Access, error) {
	log := opts.logger()

	res, err := parse(content, dir, opts, log)
	if err != nil {
		return nil, err
	}
	top, err := resolveRelations(res.objects, opts, log)
	if err != nil {
		return nil, err
	}

	a := &Access{
		opts:     opts,
		log:      log,
		objects:  res.objects,
		byID:     make(map[ObjectID]*Object, len(res.objects)),
		top:      top,
		comments: res.comments,
		stats:    res.stats,
		cache:    make(map[int]*Coords),
	}
	for _, o := range a.objects {
		a.byID[o.ID] = o
	}
	return a, nil
}

// Geo returns the object with the given name and index.
func (a *Access) Geo(name string, index int) (*Object, bool) {
	o, ok := a.byID[ObjectID{Name: name, Index: index}]
	return o, ok
}

// TopGeo returns the top object of the tree.
func (a *Access) TopGeo() *Object { return a.top }

// Objects returns all objects in file order.
func (a *Access) Objects() []*Object { return a.objects }

// Comments returns the comment dictionary.
func (a *Access) Comments() Comments { return a.comments }

// Stats returns counters collected while loading.
func (a *Access) Stats() LoadStats { return a.stats }

// Parent returns the resolved parent of o, or nil for a top object.
func (a *Access) Parent(o *Object) *Object {
	if o.parentID < 0 {
		return nil
	}
	return a.objects[o.parentID]
}

// lookup selects an object; an empty name selects the top object.
func (a *Access) lookup(name string, index int) (*Object, error) {
	if name == "" {
		return a.top, nil
	}
	o, ok := a.Geo(name, index)
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrObjectNotFound, name, index)
	}
	return o, nil
}
