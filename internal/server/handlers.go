package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/detgeo-mcp/internal/calib"
	"github.com/ironsheep/detgeo-mcp/internal/geometry"
	"github.com/ironsheep/detgeo-mcp/internal/imaging"
	"github.com/ironsheep/detgeo-mcp/internal/raster"
)

// defaultMaxPixels limits the arrays returned by pixel tools.
const defaultMaxPixels = 1000

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "geometry_load").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// imageResult is implemented by tool results that carry a rendered image.
// The image is sent as an MCP image content block after the JSON text.
type imageResult interface {
	image() *imaging.ImageResult
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Results with an image get a second {"type": "image"} block.
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).Debugf("tool failed: %v", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if ir, ok := result.(imageResult); ok {
		if img := ir.image(); img != nil {
			content = append(content, map[string]interface{}{
				"type":     "image",
				"data":     img.ImageBase64,
				"mimeType": img.MimeType,
			})
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for optional parameters
//  3. Loads the geometry from the cache as needed
//  4. Calls the geometry, raster, imaging or calib function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Geometry
	case "geometry_load":
		return s.handleGeometryLoad(args)
	case "geometry_objects":
		return s.handleGeometryObjects(args)
	case "geometry_comments":
		return s.handleGeometryComments(args)

	// Pixels
	case "geometry_pixel_coords":
		return s.handlePixelCoords(args)
	case "geometry_pixel_indexes":
		return s.handlePixelIndexes(args)
	case "geometry_scale_size":
		return s.handleScaleSize(args)
	case "geometry_image":
		return s.handleGeometryImage(args)

	// Calibration
	case "calib_find_file":
		return s.handleCalibFindFile(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; missing arguments decode as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// loadGeometry loads path through the cache.
func (s *Server) loadGeometry(path string) (*geometry.Access, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	return s.cache.Load(path)
}

// === Geometry Handlers ===

type geometryPathArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

type geometryLoadResult struct {
	Path           string   `json:"path"`
	Top            string   `json:"top"`
	Objects        int      `json:"objects"`
	Segments       int      `json:"segments"`
	Pixels         int      `json:"pixels"`
	PixelScaleSize float64  `json:"pixel_scale_size,omitempty"`
	Comments       int      `json:"comments"`
	Lines          int      `json:"lines"`
	Records        int      `json:"records"`
	Malformed      int      `json:"malformed"`
	Warnings       []string `json:"warnings,omitempty"`
}

func (s *Server) handleGeometryLoad(args json.RawMessage) (interface{}, error) {
	var a geometryPathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}

	coords, err := geo.PixelCoords("", 0)
	if err != nil {
		return nil, err
	}
	stats := geo.Stats()
	res := &geometryLoadResult{
		Path:      a.Path,
		Top:       geo.TopGeo().ID.String(),
		Objects:   len(geo.Objects()),
		Pixels:    coords.Size(),
		Comments:  len(geo.Comments()),
		Lines:     stats.Lines,
		Records:   stats.Records,
		Malformed: stats.Malformed,
	}
	for _, o := range geo.Objects() {
		if o.IsSegment() {
			res.Segments++
		}
	}
	// a tree without segments has no pitch
	if scale, err := geo.PixelScaleSize("", 0); err == nil {
		res.PixelScaleSize = scale
	}
	for _, w := range stats.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	return res, nil
}

type objectInfo struct {
	Name        string   `json:"name"`
	Index       int      `json:"index"`
	Parent      string   `json:"parent"`
	ParentIndex int      `json:"parent_index"`
	X0          float64  `json:"x0"`
	Y0          float64  `json:"y0"`
	Z0          float64  `json:"z0"`
	RotZ        float64  `json:"rot_z"`
	TiltX       float64  `json:"tilt_x"`
	TiltY       float64  `json:"tilt_y"`
	TiltZ       float64  `json:"tilt_z"`
	Segment     string   `json:"segment,omitempty"`
	Pixels      int      `json:"pixels"`
	Children    []string `json:"children,omitempty"`
}

func (s *Server) handleGeometryObjects(args json.RawMessage) (interface{}, error) {
	var a geometryPathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}

	objects := make([]objectInfo, 0, len(geo.Objects()))
	for _, o := range geo.Objects() {
		info := objectInfo{
			Name:        o.ID.Name,
			Index:       o.ID.Index,
			Parent:      o.Parent.Name,
			ParentIndex: o.Parent.Index,
			X0:          o.X0,
			Y0:          o.Y0,
			Z0:          o.Z0,
			RotZ:        o.RotZ,
			TiltX:       o.TiltX,
			TiltY:       o.TiltY,
			TiltZ:       o.TiltZ,
		}
		if o.Segment != nil {
			info.Segment = o.Segment.Name()
		}
		c, err := geo.PixelCoords(o.ID.Name, o.ID.Index)
		if err != nil {
			return nil, err
		}
		info.Pixels = c.Size()
		for _, ch := range o.Children {
			info.Children = append(info.Children, ch.ID.String())
		}
		objects = append(objects, info)
	}

	return map[string]interface{}{
		"path":    a.Path,
		"top":     geo.TopGeo().ID.String(),
		"objects": objects,
	}, nil
}

func (s *Server) handleGeometryComments(args json.RawMessage) (interface{}, error) {
	var a geometryPathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":     a.Path,
		"comments": geo.Comments(),
	}, nil
}

// === Pixel Handlers ===

type objectArgs struct {
	Path   string `json:"path"`
	Object string `json:"object"`
	Index  int    `json:"index"`
}

// label names the selected object for results.
func (a objectArgs) label(geo *geometry.Access) string {
	if a.Object == "" {
		return geo.TopGeo().ID.String()
	}
	return geometry.ObjectID{Name: a.Object, Index: a.Index}.String()
}

type rasterArgs struct {
	Scale   *float64 `json:"scale"`
	OffsetX *int     `json:"offset_x"`
	OffsetY *int     `json:"offset_y"`
}

// indexOptions combines tool arguments with the configured raster defaults
// and resolves a zero scale to the object's pixel pitch.
func (s *Server) indexOptions(geo *geometry.Access, obj objectArgs, r rasterArgs) (geometry.IndexOptions, error) {
	opts := geometry.IndexOptions{Scale: s.cfg.Raster.Scale, Offset: s.cfg.Raster.Offset}
	if r.Scale != nil {
		if *r.Scale <= 0 {
			return opts, fmt.Errorf("scale must be positive, got %g", *r.Scale)
		}
		opts.Scale = *r.Scale
	}
	if r.OffsetX != nil || r.OffsetY != nil {
		off := raster.Offset{}
		if r.OffsetX != nil {
			off.X = *r.OffsetX
		}
		if r.OffsetY != nil {
			off.Y = *r.OffsetY
		}
		opts.Offset = &off
	}
	if opts.Scale == 0 {
		scale, err := geo.PixelScaleSize(obj.Object, obj.Index)
		if err != nil {
			return opts, err
		}
		opts.Scale = scale
	}
	return opts, nil
}

// limit returns how many of n values to return for maxPixels; nil selects
// the default and negative values return everything.
func limit(n int, maxPixels *int) int {
	m := defaultMaxPixels
	if maxPixels != nil {
		m = *maxPixels
	}
	if m < 0 || m > n {
		return n
	}
	return m
}

type pixelCoordsArgs struct {
	objectArgs
	MaxPixels *int `json:"max_pixels"`
}

type pixelCoordsResult struct {
	Object    string     `json:"object"`
	Size      int        `json:"size"`
	XRange    [2]float64 `json:"x_range"`
	YRange    [2]float64 `json:"y_range"`
	ZRange    [2]float64 `json:"z_range"`
	TotalArea float64    `json:"total_area"`
	Truncated bool       `json:"truncated"`
	X         []float64  `json:"x"`
	Y         []float64  `json:"y"`
	Z         []float64  `json:"z"`
	Area      []float64  `json:"area"`
}

func valueRange(v []float64) [2]float64 {
	if len(v) == 0 {
		return [2]float64{}
	}
	return [2]float64{floats.Min(v), floats.Max(v)}
}

func (s *Server) handlePixelCoords(args json.RawMessage) (interface{}, error) {
	var a pixelCoordsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}
	c, err := geo.PixelCoords(a.Object, a.Index)
	if err != nil {
		return nil, err
	}

	n := limit(c.Size(), a.MaxPixels)
	return &pixelCoordsResult{
		Object:    a.label(geo),
		Size:      c.Size(),
		XRange:    valueRange(c.X),
		YRange:    valueRange(c.Y),
		ZRange:    valueRange(c.Z),
		TotalArea: floats.Sum(c.Area),
		Truncated: n < c.Size(),
		X:         c.X[:n],
		Y:         c.Y[:n],
		Z:         c.Z[:n],
		Area:      c.Area[:n],
	}, nil
}

type pixelIndexesArgs struct {
	objectArgs
	rasterArgs
	MaxPixels *int `json:"max_pixels"`
}

type pixelIndexesResult struct {
	Object    string         `json:"object"`
	Size      int            `json:"size"`
	Scale     float64        `json:"scale"`
	Offset    *raster.Offset `json:"offset,omitempty"`
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Truncated bool           `json:"truncated"`
	IX        []int          `json:"ix"`
	IY        []int          `json:"iy"`
}

func (s *Server) handlePixelIndexes(args json.RawMessage) (interface{}, error) {
	var a pixelIndexesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}
	opts, err := s.indexOptions(geo, a.objectArgs, a.rasterArgs)
	if err != nil {
		return nil, err
	}
	ix, err := geo.PixelCoordIndexes(a.Object, a.Index, opts)
	if err != nil {
		return nil, err
	}

	bounds := raster.Bounds(ix.IX, ix.IY)
	n := limit(ix.Size(), a.MaxPixels)
	return &pixelIndexesResult{
		Object:    a.label(geo),
		Size:      ix.Size(),
		Scale:     opts.Scale,
		Offset:    opts.Offset,
		Rows:      bounds.Rows,
		Cols:      bounds.Cols,
		Truncated: n < ix.Size(),
		IX:        ix.IX[:n],
		IY:        ix.IY[:n],
	}, nil
}

func (s *Server) handleScaleSize(args json.RawMessage) (interface{}, error) {
	var a objectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}
	scale, err := geo.PixelScaleSize(a.Object, a.Index)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"object":           a.label(geo),
		"pixel_scale_size": scale,
	}, nil
}

type geometryImageArgs struct {
	objectArgs
	rasterArgs
	Weights     string          `json:"weights"`
	Colormap    *string         `json:"colormap"`
	Zoom        *int            `json:"zoom"`
	FlipY       *bool           `json:"flip_y"`
	Gamma       *float64        `json:"gamma"`
	GridSpacing *int            `json:"grid_spacing"`
	GridLabels  *bool           `json:"grid_labels"`
	Region      *imaging.Region `json:"region"`
	Output      string          `json:"output"`
}

// renderOptions overlays the tool arguments on the configured defaults.
func (a geometryImageArgs) renderOptions(defaults imaging.RenderOptions) imaging.RenderOptions {
	opts := defaults
	if a.Colormap != nil {
		opts.Colormap = *a.Colormap
	}
	if a.Zoom != nil {
		opts.Zoom = *a.Zoom
	}
	if a.FlipY != nil {
		opts.FlipY = *a.FlipY
	}
	if a.Gamma != nil {
		opts.Gamma = *a.Gamma
	}
	if a.GridSpacing != nil {
		opts.Grid.Spacing = *a.GridSpacing
	}
	if a.GridLabels != nil {
		opts.Grid.Labels = *a.GridLabels
	}
	if a.Region != nil {
		opts.Region = a.Region
	}
	return opts
}

type geometryImageResult struct {
	Object  string             `json:"object"`
	Rows    int                `json:"rows"`
	Cols    int                `json:"cols"`
	Scale   float64            `json:"scale"`
	Dropped int                `json:"dropped"`
	Stats   imaging.ImageStats `json:"stats"`
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Saved   string             `json:"saved,omitempty"`

	encoded *imaging.ImageResult
}

func (r *geometryImageResult) image() *imaging.ImageResult { return r.encoded }

func (s *Server) handleGeometryImage(args json.RawMessage) (interface{}, error) {
	var a geometryImageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	geo, err := s.loadGeometry(a.Path)
	if err != nil {
		return nil, err
	}
	opts, err := s.indexOptions(geo, a.objectArgs, a.rasterArgs)
	if err != nil {
		return nil, err
	}

	var weights []float64
	switch a.Weights {
	case "", "ones":
	case "area":
		if weights, err = geo.PixelAreas(a.Object, a.Index); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown weights %q: must be ones or area", a.Weights)
	}

	img, err := geo.Image(a.Object, a.Index, opts, weights)
	if err != nil {
		return nil, err
	}
	ropts := a.renderOptions(s.cfg.Render)
	rendered, err := imaging.Render(img.Dense, ropts)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.Encode(rendered)
	if err != nil {
		return nil, err
	}

	rows, cols := img.Dims()
	res := &geometryImageResult{
		Object:  a.label(geo),
		Rows:    rows,
		Cols:    cols,
		Scale:   opts.Scale,
		Dropped: img.Dropped,
		Stats:   imaging.Stats(img.Dense, ropts.Region),
		Width:   encoded.Width,
		Height:  encoded.Height,
		encoded: encoded,
	}
	if a.Output != "" {
		if err := imaging.Save(rendered, a.Output); err != nil {
			return nil, err
		}
		res.Saved = a.Output
	}
	return res, nil
}

// === Calibration Handlers ===

type calibFindFileArgs struct {
	Source   string `json:"source"`
	Type     string `json:"type"`
	Run      *int   `json:"run"`
	CalibDir string `json:"calib_dir"`
	Group    string `json:"group"`
}

type calibFindFileResult struct {
	Source  string `json:"source"`
	DetType string `json:"det_type"`
	Type    string `json:"type"`
	Run     int    `json:"run"`
	Path    string `json:"path"`
	Begin   int    `json:"begin"`
	End     int    `json:"end"`
}

func (s *Server) handleCalibFindFile(args json.RawMessage) (interface{}, error) {
	var a calibFindFileArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Source == "" {
		return nil, errors.New("source is required")
	}
	if a.Run == nil {
		return nil, errors.New("run is required")
	}
	ctype, err := calib.ParseCalibType(a.Type)
	if err != nil {
		return nil, err
	}

	f := &calib.Finder{
		Dir:    s.cfg.Calib.Dir,
		Group:  s.cfg.Calib.Group,
		Logger: s.log,
	}
	if a.CalibDir != "" {
		f.Dir = a.CalibDir
	}
	if a.Group != "" {
		f.Group = a.Group
	}

	path, err := f.FindCalibFile(a.Source, ctype, *a.Run)
	if err != nil {
		return nil, err
	}
	file, err := calib.ParseCalibFile(path)
	if err != nil {
		return nil, err
	}
	return &calibFindFileResult{
		Source:  a.Source,
		DetType: calib.DetTypeFromSource(a.Source).String(),
		Type:    ctype.String(),
		Run:     *a.Run,
		Path:    path,
		Begin:   file.Begin,
		End:     file.End,
	}, nil
}
