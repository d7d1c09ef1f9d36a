// Package server implements the MCP (Model Context Protocol) server for
// detector geometry tools.
//
// This package provides a JSON-RPC 2.0 server that exposes geometry loading,
// pixel coordinate evaluation, rasterization and calibration lookup through
// the MCP protocol, so an MCP client can inspect detector layouts without
// custom tooling.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Geometry:
//   - geometry_load: Load a geometry file and summarize it
//   - geometry_objects: List objects with their parents and children
//   - geometry_comments: Return the comment dictionary
//
// Pixels:
//   - geometry_pixel_coords: Pixel coordinates in the top frame
//   - geometry_pixel_indexes: Image indexes of every pixel
//   - geometry_scale_size: Pixel pitch of an object
//   - geometry_image: Render the rasterized pixel map as a PNG
//
// Calibration:
//   - calib_find_file: Select the calibration file valid for a run
//
// Objects are addressed by name and index; an empty name selects the top
// object. Large coordinate arrays are truncated to max_pixels entries.
//
// # Geometry Caching
//
// Loaded geometries are cached by path together with their coordinate
// arrays, so repeated calls on one file parse it once. The cache persists
// for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client through the detgeo
// command:
//
//	srv := server.New(cfg, logrus.StandardLogger())
//	if err := srv.Run(); err != nil {
//	    logrus.Fatal(err)
//	}
package server
