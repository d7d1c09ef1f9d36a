package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// objectSchema returns an input schema with the path, object and index
// properties shared by the geometry tools, plus extra.
func objectSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the geometry file",
		},
		"object": map[string]interface{}{
			"type":        "string",
			"description": "Object name (e.g. QUAD:V1). Empty selects the top object",
		},
		"index": map[string]interface{}{
			"type":        "integer",
			"description": "Object index. Default 0",
			"default":     0,
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   []string{"path"},
	}
}

var maxPixelsProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Maximum number of pixels returned per array. Default 1000; -1 returns all",
	"default":     defaultMaxPixels,
}

var rasterProperties = map[string]interface{}{
	"scale": map[string]interface{}{
		"type":        "number",
		"description": "Pixel size in coordinate units (um). Default: the object's pixel pitch",
	},
	"offset_x": map[string]interface{}{
		"type":        "integer",
		"description": "Index of coordinate x=0. When offset_x and offset_y are both omitted the minimum coordinate maps to index 0",
	},
	"offset_y": map[string]interface{}{
		"type":        "integer",
		"description": "Index of coordinate y=0",
	},
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Geometry
		{
			Name:        "geometry_load",
			Description: "Load a detector geometry file and return a summary: top object, object and pixel counts, comment count and skipped malformed lines.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the geometry file",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Discard a cached copy and parse the file again",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "geometry_objects",
			Description: "List every geometry object in file order with its parent, placement, segment type, pixel count and children.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the geometry file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "geometry_comments",
			Description: "Return the comment dictionary of a geometry file (# KEY value lines).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the geometry file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pixels
		{
			Name:        "geometry_pixel_coords",
			Description: "Get pixel coordinates (um) of every segment under an object, in the top object's frame. Returns ranges, total size and the first max_pixels values of x, y, z and area.",
			InputSchema: objectSchema(map[string]interface{}{
				"max_pixels": maxPixelsProperty,
			}),
		},
		{
			Name:        "geometry_pixel_indexes",
			Description: "Convert pixel coordinates of an object into integer image indexes (column ix, row iy). Returns the image size and the first max_pixels index pairs.",
			InputSchema: objectSchema(merge(rasterProperties, map[string]interface{}{
				"max_pixels": maxPixelsProperty,
			})),
		},
		{
			Name:        "geometry_scale_size",
			Description: "Get the pixel pitch (um) of the first segment under an object.",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "geometry_image",
			Description: "Rasterize the pixels of an object into an image and return it as a PNG with intensity statistics. Pixels landing in one cell accumulate.",
			InputSchema: objectSchema(merge(rasterProperties, map[string]interface{}{
				"weights": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"ones", "area"},
					"description": "Per-pixel value: 1 or the projected pixel area. Default ones",
					"default":     "ones",
				},
				"colormap": map[string]interface{}{
					"type":        "string",
					"description": "gray, viridis, hot, jet or a comma separated list of hex colors",
				},
				"zoom": map[string]interface{}{
					"type":        "integer",
					"description": "Screen pixels per image cell. Default 1",
				},
				"flip_y": map[string]interface{}{
					"type":        "boolean",
					"description": "Draw row 0 at the bottom",
				},
				"gamma": map[string]interface{}{
					"type":        "number",
					"description": "Gamma correction; values above 1 brighten mid tones",
				},
				"grid_spacing": map[string]interface{}{
					"type":        "integer",
					"description": "Draw a grid every N cells. 0 disables it",
				},
				"grid_labels": map[string]interface{}{
					"type":        "boolean",
					"description": "Label grid crossings with cell indexes",
				},
				"region": map[string]interface{}{
					"type":        "object",
					"description": "Optional cell region {x1, y1, x2, y2} to render",
					"properties": map[string]interface{}{
						"x1": map[string]interface{}{"type": "integer"},
						"y1": map[string]interface{}{"type": "integer"},
						"x2": map[string]interface{}{"type": "integer"},
						"y2": map[string]interface{}{"type": "integer"},
					},
				},
				"output": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to also save the image to",
				},
			})),
		},

		// Calibration
		{
			Name:        "calib_find_file",
			Description: "Find the calibration file of a given type valid for a run in a calib directory tree (<dir>/<group>/<source>/<type>/<begin>-<end>.data).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": map[string]interface{}{
						"type":        "string",
						"description": "Data source, e.g. Camp.0:pnCCD.1",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Calibration type, e.g. pedestals or geometry",
					},
					"run": map[string]interface{}{
						"type":        "integer",
						"description": "Run number",
					},
					"calib_dir": map[string]interface{}{
						"type":        "string",
						"description": "Calibration directory. Default from configuration",
					},
					"group": map[string]interface{}{
						"type":        "string",
						"description": "Calibration group, e.g. PNCCD::CalibV1. Default derived from the source",
					},
				},
				"required": []string{"source", "type", "run"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
