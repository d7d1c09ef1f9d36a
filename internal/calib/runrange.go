package calib

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MaxRun is the largest run number a file name can hold. An open
	// range ("N-end") is valid up to MaxRun.
	MaxRun = 9999

	// OpenEnd requests an open-ended range in MakeFileName.
	OpenEnd = -1

	dataExt = ".data"
)

// ErrRunRange is returned for run numbers outside 0..MaxRun or reversed
// ranges.
var ErrRunRange = errors.New("invalid run range")

// File is a calibration file together with the run range it covers.
type File struct {
	Path  string
	Begin int
	End   int
}

// Covers reports whether run lies within the file's range.
func (f File) Covers(run int) bool { return f.Begin <= run && run <= f.End }

func (f File) String() string {
	return fmt.Sprintf("begin: %4d  end: %4d  path: %s", f.Begin, f.End, f.Path)
}

// ParseCalibFile reads the run range from a file name like "15-end.data" or
// "10-20.data". The directory part of path is ignored.
func ParseCalibFile(path string) (File, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	begin, end, ok := strings.Cut(stem, "-")
	if !ok {
		return File{}, fmt.Errorf("%w: %q has no dash", ErrRunRange, base)
	}
	f := File{Path: path}
	var err error
	if f.Begin, err = strconv.Atoi(begin); err != nil || f.Begin < 0 {
		return File{}, fmt.Errorf("%w: %q has invalid begin run", ErrRunRange, base)
	}
	if end == "end" {
		f.End = MaxRun
	} else if f.End, err = strconv.Atoi(end); err != nil || f.End < 0 {
		return File{}, fmt.Errorf("%w: %q has invalid end run", ErrRunRange, base)
	}
	return f, nil
}

// MakeFileName returns "<begin>-<end>.data". An OpenEnd end is written as
// the literal "end".
func MakeFileName(begin, end int) (string, error) {
	if begin < 0 || begin > MaxRun {
		return "", fmt.Errorf("%w: start run %d", ErrRunRange, begin)
	}
	if end == OpenEnd {
		return fmt.Sprintf("%d-end%s", begin, dataExt), nil
	}
	switch {
	case end < 0 || end > MaxRun:
		return "", fmt.Errorf("%w: end run %d", ErrRunRange, end)
	case end < begin:
		return "", fmt.Errorf("%w: end run %d < start run %d", ErrRunRange, end, begin)
	}
	return fmt.Sprintf("%d-%d%s", begin, end, dataExt), nil
}
