package geometry

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

const (
	commentMarker = '#'
	recordFields  = 11
)

// Comments maps comment keys to their text. A repeated key keeps the last
// value seen in the file.
type Comments map[string]string

// LoadStats summarises one geometry load.
type LoadStats struct {
	Path      string       `json:"path,omitempty"`
	Lines     int          `json:"lines"`
	Records   int          `json:"records"`
	Comments  int          `json:"comments"`
	Malformed int          `json:"malformed"`
	Warnings  []*LineError `json:"-"`
}

type parseResult struct {
	objects  []*Object
	comments Comments
	stats    LoadStats
}

// parse builds objects and the comment dictionary from file content. dir
// resolves relative pixel table paths. Malformed lines are skipped.
func parse(content []byte, dir string, opts Options, log logrus.FieldLogger) (*parseResult, error) {
	res := &parseResult{comments: make(Comments)}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line[0] == commentMarker {
			if key, val, ok := parseComment(line); ok {
				res.comments[key] = val
				res.stats.Comments++
			} else if opts.Verbosity.Has(PrintParseWarnings) {
				log.WithField("line", lineNo).Warn("ignoring comment without key")
			}
			continue
		}

		obj, lerr := parseRecord(line, lineNo, dir)
		if lerr != nil {
			res.stats.Malformed++
			res.stats.Warnings = append(res.stats.Warnings, lerr)
			if opts.Verbosity.Has(PrintParseWarnings) {
				log.WithField("line", lineNo).Warnf("skipping malformed record: %s", lerr.Reason)
			}
			continue
		}

		obj.id = len(res.objects)
		res.objects = append(res.objects, obj)
		res.stats.Records++
		if opts.Verbosity.Has(PrintGeoList) {
			log.WithField("line", lineNo).Debugf("parsed object %s\n%s", obj.ID, objectDump.Sdump(obj))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan geometry file: %w", err)
	}
	res.stats.Lines = lineNo

	if len(res.objects) == 0 {
		return nil, fmt.Errorf("%w (%d lines, %d malformed)", ErrNoObjects, lineNo, res.stats.Malformed)
	}
	return res, nil
}

// objectDump renders parsed records field by field. Pixel tables are cut at
// the depth limit.
var objectDump = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                2,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// parseComment splits "# KEY value..." into key and value.
func parseComment(line string) (key, val string, ok bool) {
	body := strings.TrimLeft(line, "# \t")
	if body == "" {
		return "", "", false
	}
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return body, "", true
	}
	return body[:i], strings.TrimSpace(body[i+1:]), true
}

// parseRecord turns one record line into an unresolved Object.
func parseRecord(line string, lineNo int, dir string) (*Object, *LineError) {
	fail := func(format string, args ...interface{}) (*Object, *LineError) {
		return nil, &LineError{Line: lineNo, Text: line, Reason: fmt.Sprintf(format, args...)}
	}

	fields := strings.Fields(line)
	if len(fields) < recordFields {
		return fail("expected at least %d fields, got %d", recordFields, len(fields))
	}

	index, err := strconv.Atoi(fields[1])
	if err != nil || index < 0 {
		return fail("invalid object index %q", fields[1])
	}
	parentIndex, err := strconv.Atoi(fields[3])
	if err != nil || parentIndex < 0 {
		return fail("invalid parent index %q", fields[3])
	}

	var nums [7]float64
	for i := range nums {
		v, err := parseFinite(fields[4+i])
		if err != nil {
			return fail("field %d: %v", 5+i, err)
		}
		nums[i] = v
	}

	obj := &Object{
		ID:       ObjectID{Name: fields[0], Index: index},
		Parent:   ObjectID{Name: fields[2], Index: parentIndex},
		X0:       nums[0],
		Y0:       nums[1],
		Z0:       nums[2],
		RotZ:     nums[3],
		TiltX:    nums[4],
		TiltY:    nums[5],
		TiltZ:    nums[6],
		parentID: -1,
		line:     lineNo,
	}

	shape := fields[recordFields:]
	switch len(shape) {
	case 0:
		if seg, ok := SegmentByName(obj.ID.Name); ok {
			obj.Segment = seg
		}
	case 1:
		if !strings.HasPrefix(shape[0], "@") || len(shape[0]) == 1 {
			return fail("expected @FILE pixel table, got %q", shape[0])
		}
		src := shape[0][1:]
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		seg, err := LoadTableSegment(path, src)
		if err != nil {
			return fail("%v", err)
		}
		obj.Segment = seg
	case 3, 4:
		seg, msg := parseMatrixShape(shape)
		if seg == nil {
			return fail("%s", msg)
		}
		obj.Segment = seg
	default:
		return fail("unexpected %d shape fields", len(shape))
	}

	obj.xform = newTransform(obj)
	return obj, nil
}

// parseMatrixShape reads "PITCH ROWS COLS" or "PITCH-X PITCH-Y ROWS COLS".
func parseMatrixShape(shape []string) (*MatrixSegment, string) {
	nPitch := len(shape) - 2
	pitches := make([]float64, nPitch)
	for i := 0; i < nPitch; i++ {
		p, err := parseFinite(shape[i])
		if err != nil || p <= 0 {
			return nil, fmt.Sprintf("invalid pixel pitch %q", shape[i])
		}
		pitches[i] = p
	}
	rows, err := strconv.Atoi(shape[nPitch])
	if err != nil || rows <= 0 {
		return nil, fmt.Sprintf("invalid row count %q", shape[nPitch])
	}
	cols, err := strconv.Atoi(shape[nPitch+1])
	if err != nil || cols <= 0 {
		return nil, fmt.Sprintf("invalid column count %q", shape[nPitch+1])
	}

	seg := &MatrixSegment{Rows: rows, Cols: cols, PitchX: pitches[0], PitchY: pitches[0]}
	if nPitch == 2 {
		seg.PitchY = pitches[1]
	}
	return seg, ""
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
