package calib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoCalibDir is returned when no calibration directory is configured.
	ErrNoCalibDir = errors.New("calibration directory is not set")

	// ErrNotCalibDir is returned when creating files outside a directory
	// named "calib".
	ErrNotCalibDir = errors.New("not a calib directory")

	// ErrNoGroup is returned when the calibration group cannot be derived
	// from the source.
	ErrNoGroup = errors.New("calibration group not found for source")

	// ErrNotFound is returned when no calibration file covers the run.
	ErrNotFound = errors.New("calibration file not found")
)

// Verbosity selects finder diagnostics.
type Verbosity uint

const (
	// LogWarnings logs skipped file names and missing directories.
	LogWarnings Verbosity = 1
	// LogSorted logs the ordered candidate list.
	LogSorted Verbosity = 4
	// LogSelected logs the selected file.
	LogSelected Verbosity = 8
	// LogCandidates logs every candidate in directory order.
	LogCandidates Verbosity = 1024
)

// Has reports whether all bits of flag are set.
func (v Verbosity) Has(flag Verbosity) bool { return flag != 0 && v&flag == flag }

// Finder looks up calibration files below Dir.
type Finder struct {
	// Dir is the calibration directory, ".../calib".
	Dir string
	// Group overrides the group derived from the source.
	Group string

	Logger    logrus.FieldLogger
	Verbosity Verbosity
}

func (f *Finder) log() logrus.FieldLogger {
	if f.Logger != nil {
		return f.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// group returns the configured group or the one derived from src.
func (f *Finder) group(src string) (string, error) {
	if f.Group != "" {
		return f.Group, nil
	}
	g := DetTypeFromSource(src).CalibGroup()
	if g == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGroup, src)
	}
	return g, nil
}

// TypeDir returns <Dir>/<group>/<src>/<ctype>.
func (f *Finder) TypeDir(src string, ctype CalibType) (string, error) {
	if f.Dir == "" {
		return "", ErrNoCalibDir
	}
	g, err := f.group(src)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, g, src, ctype.String()), nil
}

// FindCalibFile returns the calibration file of type ctype for src that is
// valid for run. Runs above MaxRun are treated as MaxRun.
func (f *Finder) FindCalibFile(src string, ctype CalibType, run int) (string, error) {
	if run > MaxRun {
		run = MaxRun
	}
	dir, err := f.TypeDir(src, ctype)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if f.Verbosity.Has(LogWarnings) {
				f.log().WithField("dir", dir).Warn("calibration directory does not exist")
			}
			return "", fmt.Errorf("%w: no directory %s", ErrNotFound, dir)
		}
		return "", fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return f.SelectCalibFile(files, run)
}

// SelectCalibFile picks the file valid for run from a list of paths. Only
// "*.data" files with a parsable run range are considered. The file with
// the latest begin run wins; among equal begins the narrowest range wins.
func (f *Finder) SelectCalibFile(files []string, run int) (string, error) {
	log := f.log()

	var cands []File
	for _, path := range files {
		name := filepath.Base(path)
		if name == "HISTORY" || filepath.Ext(name) != dataExt {
			continue
		}
		cf, err := ParseCalibFile(path)
		if err != nil {
			if f.Verbosity.Has(LogWarnings) {
				log.WithField("file", name).Warnf("skipping calibration file: %v", err)
			}
			continue
		}
		if f.Verbosity.Has(LogCandidates) {
			log.Debug(cf.String())
		}
		cands = append(cands, cf)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Begin != cands[j].Begin {
			return cands[i].Begin < cands[j].Begin
		}
		return cands[i].End > cands[j].End
	})

	if f.Verbosity.Has(LogSorted) {
		for i := len(cands) - 1; i >= 0; i-- {
			log.Debug(cands[i].String())
		}
	}

	for i := len(cands) - 1; i >= 0; i-- {
		if cands[i].Covers(run) {
			if f.Verbosity.Has(LogSelected) {
				log.WithField("run", run).Infof("selected calibration file %s", cands[i].Path)
			}
			return cands[i].Path, nil
		}
	}
	return "", fmt.Errorf("%w: run %d", ErrNotFound, run)
}

// MakeCalibFileName returns the path for a new calibration file of type
// ctype for src covering begin..end (end may be OpenEnd), creating the
// group, source and type directories as needed. Dir must exist and be
// named "calib".
func (f *Finder) MakeCalibFileName(src string, ctype CalibType, begin, end int) (string, error) {
	if f.Dir == "" {
		return "", ErrNoCalibDir
	}
	if filepath.Base(filepath.Clean(f.Dir)) != "calib" {
		return "", fmt.Errorf("%w: %s", ErrNotCalibDir, f.Dir)
	}
	if _, err := os.Stat(f.Dir); err != nil {
		return "", fmt.Errorf("failed to access calib directory: %w", err)
	}
	name, err := MakeFileName(begin, end)
	if err != nil {
		return "", err
	}
	dir, err := f.TypeDir(src, ctype)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}
