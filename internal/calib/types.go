// Package calib locates calibration files in an experiment calibration
// directory and describes the detector a data source belongs to.
//
// Calibration files live under
//
//	<calib dir>/<group>/<source>/<calib type>/<begin>-<end>.data
//
// where group is derived from the detector type of the source (for example
// "PNCCD::CalibV1" for "Camp.0:pnCCD.0") and begin-end is the run range the
// file is valid for. An end of "end" means valid for all later runs.
//
// Only file discovery is implemented here; calibration constants are not
// loaded. Geometry files found this way are read with the geometry package.
package calib

import (
	"fmt"
	"strings"
)

// DetType enumerates the detector families known to the calibration store.
type DetType int

const (
	Undefined DetType = iota
	Cspad
	Cspad2x2
	Princeton
	Pnccd
	Tm6740
	Opal1000
	Opal2000
	Opal4000
	Opal8000
	OrcaFl40
	Epix
	Epix10k
	Epix100a
	Fccd960
	Andor
	Acqiris
	Imp
	Quartz4A150
	Rayonix
	Evr
	Fccd
	Timepix
	Fli
	Pimax
	Andor3d
	Jungfrau
	Zyla
	EpicsCam
	Epix10ka
	Uxi
	Pixis
	Epix10ka2M
	Epix10kaQuad
	Streak
	Archon
	IStar
	Alvium
)

type detTypeInfo struct {
	name  string
	group string
	// token identifies the type in a source string, e.g. ":pnCCD."
	token string
}

var detTypes = [...]detTypeInfo{
	Undefined:    {"UNDEFINED", "UNDEFINED", ""},
	Cspad:        {"Cspad", "CsPad::CalibV1", ":Cspad."},
	Cspad2x2:     {"Cspad2x2", "CsPad2x2::CalibV1", ":Cspad2x2."},
	Princeton:    {"Princeton", "Princeton::CalibV1", ":Princeton."},
	Pnccd:        {"pnCCD", "PNCCD::CalibV1", ":pnCCD."},
	Tm6740:       {"Tm6740", "Camera::CalibV1", ":Tm6740."},
	Opal1000:     {"Opal1000", "Camera::CalibV1", ":Opal1000."},
	Opal2000:     {"Opal2000", "Camera::CalibV1", ":Opal2000."},
	Opal4000:     {"Opal4000", "Camera::CalibV1", ":Opal4000."},
	Opal8000:     {"Opal8000", "Camera::CalibV1", ":Opal8000."},
	OrcaFl40:     {"OrcaFl40", "Camera::CalibV1", ":OrcaFl40."},
	Epix:         {"Epix", "Epix::CalibV1", ":Epix."},
	Epix10k:      {"Epix10k", "Epix10ka::CalibV1", ":Epix10k."},
	Epix100a:     {"Epix100a", "Epix100a::CalibV1", ":Epix100a."},
	Fccd960:      {"Fccd960", "Camera::CalibV1", ":Fccd960."},
	Andor:        {"Andor", "Andor::CalibV1", ":Andor."},
	Acqiris:      {"Acqiris", "Acqiris::CalibV1", ":Acqiris."},
	Imp:          {"Imp", "Imp::CalibV1", ":Imp."},
	Quartz4A150:  {"Quartz4A150", "Camera::CalibV1", ":Quartz4A150."},
	Rayonix:      {"Rayonix", "Camera::CalibV1", ":Rayonix."},
	Evr:          {"Evr", "EvrData::CalibV1", ":Evr."},
	Fccd:         {"Fccd", "Camera::CalibV1", ":Fccd."},
	Timepix:      {"Timepix", "Timepix::CalibV1", ":Timepix."},
	Fli:          {"Fli", "Fli::CalibV1", ":Fli."},
	Pimax:        {"Pimax", "Pimax::CalibV1", ":Pimax."},
	Andor3d:      {"Andor3d", "Andor3d::CalibV1", ":DualAndor."},
	Jungfrau:     {"Jungfrau", "Jungfrau::CalibV1", ":Jungfrau."},
	Zyla:         {"Zyla", "Camera::CalibV1", ":Zyla."},
	EpicsCam:     {"ControlsCamera", "Camera::CalibV1", ":ControlsCamera."},
	Epix10ka:     {"Epix10ka", "Epix10ka::CalibV1", ":Epix10ka."},
	Uxi:          {"Uxi", "Uxi::CalibV1", ":Uxi."},
	Pixis:        {"Pixis", "Pixis::CalibV1", ":Pixis."},
	Epix10ka2M:   {"Epix10ka2M", "Epix10ka2M::CalibV1", ":Epix10ka2M."},
	Epix10kaQuad: {"Epix10kaQuad", "Epix10kaQuad::CalibV1", ":Epix10kaQuad."},
	Streak:       {"Streak", "Camera::CalibV1", ":StreakC7700."},
	Archon:       {"Archon", "Camera::CalibV1", ":Archon."},
	IStar:        {"iStar", "Camera::CalibV1", ":iStar."},
	Alvium:       {"Alvium", "Camera::CalibV1", ":Alvium."},
}

func (d DetType) info() detTypeInfo {
	if d < 0 || int(d) >= len(detTypes) {
		return detTypes[Undefined]
	}
	return detTypes[d]
}

// String returns the detector family name, e.g. "pnCCD".
func (d DetType) String() string { return d.info().name }

// CalibGroup returns the calibration group directory for the detector type,
// or "" for Undefined.
func (d DetType) CalibGroup() string {
	if d.info().token == "" {
		return ""
	}
	return d.info().group
}

// DetTypeFromSource returns the detector type named in a source string such
// as "CxiDs1.0:Cspad.0". Unknown sources return Undefined.
func DetTypeFromSource(source string) DetType {
	for d := range detTypes {
		if tok := detTypes[d].token; tok != "" && strings.Contains(source, tok) {
			return DetType(d)
		}
	}
	return Undefined
}

// CalibType enumerates the kinds of calibration constants.
type CalibType int

const (
	Pedestals CalibType = iota
	PixelStatus
	PixelRMS
	PixelGain
	PixelMask
	PixelBkgd
	CommonMode
	Geometry
	PixelOffset
	PixelDatast
)

var calibNames = [...]string{
	Pedestals:   "pedestals",
	PixelStatus: "pixel_status",
	PixelRMS:    "pixel_rms",
	PixelGain:   "pixel_gain",
	PixelMask:   "pixel_mask",
	PixelBkgd:   "pixel_bkgd",
	CommonMode:  "common_mode",
	Geometry:    "geometry",
	PixelOffset: "pixel_offset",
	PixelDatast: "pixel_datast",
}

// CalibTypes lists every calibration type in enumeration order.
func CalibTypes() []CalibType {
	types := make([]CalibType, len(calibNames))
	for i := range types {
		types[i] = CalibType(i)
	}
	return types
}

// String returns the directory name of the calibration type.
func (c CalibType) String() string {
	if c < 0 || int(c) >= len(calibNames) {
		return fmt.Sprintf("CalibType(%d)", int(c))
	}
	return calibNames[c]
}

// ParseCalibType maps a directory name such as "pixel_status" to its type.
func ParseCalibType(name string) (CalibType, error) {
	for i, n := range calibNames {
		if n == name {
			return CalibType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown calibration type %q", name)
}
