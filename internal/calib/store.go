package calib

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Base holds the nominal shape of the calibration arrays of a detector
// family. Zero dimensions are variable and come from the files themselves.
type Base struct {
	NDim       int
	Shape      []int
	CommonMode []float64
}

// Size returns the number of elements in Shape, or 0 when it is variable.
func (b *Base) Size() int {
	if b == nil || len(b.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

func cameraBase() *Base {
	return &Base{NDim: 2, Shape: []int{0, 0}, CommonMode: make([]float64, 16)}
}

// BaseFor returns the nominal calibration layout of a detector type, or nil
// when calibration is not implemented for it.
func BaseFor(d DetType) *Base {
	switch d {
	case Pnccd:
		b := &Base{NDim: 2, Shape: []int{4, 512, 512}}
		b.CommonMode = []float64{1, 50, 50, 100, 1, float64(b.Size()), 1}
		return b
	case Cspad:
		return &Base{NDim: 3, Shape: []int{32, 185, 388}}
	case Cspad2x2:
		return &Base{NDim: 3, Shape: []int{185, 388, 2}}
	case Andor3d:
		return &Base{NDim: 3, Shape: []int{2, 0, 0}, CommonMode: append([]float64{2, 10, 10, 0}, make([]float64, 12)...)}
	case Jungfrau:
		return &Base{NDim: 3, Shape: []int{1, 0, 0}, CommonMode: append([]float64{2, 10, 10, 0}, make([]float64, 12)...)}
	case Epix10ka:
		return &Base{NDim: 4, Shape: []int{1, 0, 0}, CommonMode: append([]float64{3, 100, 100, 384}, make([]float64, 12)...)}
	case Imp:
		return &Base{NDim: 2, Shape: []int{4, 1023}, CommonMode: make([]float64, 16)}
	case Acqiris:
		return &Base{NDim: 2, Shape: []int{0, 0}, CommonMode: make([]float64, 16)}
	case Princeton, Andor, Epix100a:
		return cameraBase()
	case Opal1000, Opal2000, Opal4000, Opal8000, Tm6740, OrcaFl40, Fccd960,
		Quartz4A150, Rayonix, Fccd, Timepix, Fli, Zyla, Pimax:
		return cameraBase()
	}
	return nil
}

// Options configures Create.
type Options struct {
	Logger    logrus.FieldLogger
	Verbosity Verbosity
}

// Pars describes the calibration available for one source and run: the
// detector layout and the file selected for every calibration type.
type Pars struct {
	Source  string
	Group   string
	Run     int
	DetType DetType

	// Base is nil when calibration is not implemented for the detector.
	Base *Base

	files map[CalibType]string
}

// Path returns the file selected for ctype.
func (p *Pars) Path(ctype CalibType) (string, bool) {
	path, ok := p.files[ctype]
	return path, ok
}

// GeometryPath returns the geometry file selected for the run.
func (p *Pars) GeometryPath() (string, bool) { return p.Path(Geometry) }

// Found lists the calibration types with a selected file, in enumeration
// order.
func (p *Pars) Found() []CalibType {
	var types []CalibType
	for _, c := range CalibTypes() {
		if _, ok := p.files[c]; ok {
			types = append(types, c)
		}
	}
	return types
}

// Create resolves the calibration files of source for run below calibDir.
// An empty group is derived from the source. Types without a file covering
// the run are left out; other lookup failures are returned.
func Create(calibDir, group, source string, run int, opts Options) (*Pars, error) {
	dt := DetTypeFromSource(source)
	if group == "" {
		group = dt.CalibGroup()
	}

	f := &Finder{Dir: calibDir, Group: group, Logger: opts.Logger, Verbosity: opts.Verbosity}
	log := f.log().WithFields(logrus.Fields{"source": source, "run": run})

	p := &Pars{
		Source:  source,
		Group:   group,
		Run:     run,
		DetType: dt,
		Base:    BaseFor(dt),
		files:   make(map[CalibType]string),
	}
	if opts.Verbosity != 0 {
		log.Infof("detector type %d: %s", int(dt), dt)
	}
	if p.Base == nil {
		log.Warn("calibration is not implemented for this source")
	}

	for _, ctype := range CalibTypes() {
		path, err := f.FindCalibFile(source, ctype, run)
		switch {
		case err == nil:
			p.files[ctype] = path
		case errors.Is(err, ErrNotFound):
			continue
		default:
			return nil, fmt.Errorf("failed to find %s calibration: %w", ctype, err)
		}
	}
	return p, nil
}
