package geometry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// resolveRelations links every object to its declared parent and returns the
// top object. Objects are linked by arena index; children are appended in
// file order. Self-parenting, duplicate identities and parent cycles are
// fatal. Several parentless objects are fatal in strict mode, otherwise the
// first one in file order becomes the top object.
func resolveRelations(objects []*Object, opts Options, log logrus.FieldLogger) (*Object, error) {
	byID := make(map[ObjectID]int, len(objects))
	for i, o := range objects {
		if o.ID == o.Parent {
			return nil, fmt.Errorf("%w: %s (line %d)", ErrSelfParent, o.ID, o.line)
		}
		if prev, dup := byID[o.ID]; dup {
			return nil, fmt.Errorf("%w: %s (lines %d and %d)", ErrDuplicateObject, o.ID, objects[prev].line, o.line)
		}
		byID[o.ID] = i
	}

	var roots []*Object
	for _, o := range objects {
		if pid, ok := byID[o.Parent]; ok {
			o.parentID = pid
			if opts.Verbosity.Has(PrintRelations) {
				log.WithField("object", o.ID.String()).Debugf("parent %s", o.Parent)
			}
			continue
		}
		o.parentID = -1
		roots = append(roots, o)
		if o.Parent.Name != RootParent {
			log.WithField("object", o.ID.String()).Warnf("parent %s not found, treating object as top", o.Parent)
		} else if opts.Verbosity.Has(PrintRelations) {
			log.WithField("object", o.ID.String()).Debug("top object")
		}
	}

	if err := checkCycles(objects); err != nil {
		return nil, err
	}

	for _, o := range objects {
		if o.parentID >= 0 {
			p := objects[o.parentID]
			p.Children = append(p.Children, o)
		}
	}
	if opts.Verbosity.Has(PrintParseWarnings) {
		for _, o := range objects {
			if o.Segment == nil && len(o.Children) == 0 {
				log.WithField("object", o.ID.String()).Warnf("no pixel segment and no children (line %d), unknown segment name?", o.line)
			}
		}
	}

	switch {
	case len(roots) == 0:
		return nil, ErrParentCycle
	case len(roots) > 1:
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = r.ID.String()
		}
		if opts.StrictRoots {
			return nil, fmt.Errorf("%w: %v", ErrMultipleRoots, names)
		}
		log.Warnf("%d top objects %v, using %s", len(roots), names, roots[0].ID)
	}

	if opts.Verbosity.Has(PrintGeoChildren) {
		for _, o := range objects {
			log.WithField("object", o.ID.String()).Debugf("children: %d", len(o.Children))
		}
	}
	return roots[0], nil
}

// checkCycles walks each parent chain once. A chain that reaches an object
// already on the current walk is a cycle.
func checkCycles(objects []*Object) error {
	mark := make([]int, len(objects)) // 0 unvisited, otherwise walk number
	for start := range objects {
		if mark[start] != 0 {
			continue
		}
		walk := start + 1
		for i := start; i >= 0; i = objects[i].parentID {
			if mark[i] == walk {
				return fmt.Errorf("%w: through %s (line %d)", ErrParentCycle, objects[i].ID, objects[i].line)
			}
			if mark[i] != 0 {
				break
			}
			mark[i] = walk
		}
	}
	return nil
}
