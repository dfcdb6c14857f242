// Package server implements the MCP (Model Context Protocol) server for the
// feature detection tools.
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
// Image information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_load_sequence: Load numbered frames and register them under an ID
//
// Keypoint selection:
//   - keypoints_select: Greedy non-maximum suppression over a raw surface
//   - keypoints_overlap: Overlap fraction of two keypoints
//
// Detectors:
//   - image_harris_response: Normalized Harris response as PNG
//   - image_harris_keypoints: Harris corners selected from the response
//   - image_detect_shi_tomasi: Good features to track
//   - image_detect_fast: FAST segment test
//   - image_compare_detectors: Shi-Tomasi and FAST side by side
//
// Matching:
//   - descriptors_match: Brute force or FLANN-style matching of stored descriptors
//
// Detector tools take either a path or a sequence_id with a frame number,
// plus an optional region. Keypoints found inside a region are reported in
// full image coordinates.
//
// # Image Caching
//
// Images and their grayscale conversions are cached by path for the
// lifetime of the process. Loaded sequences stay registered likewise.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, -32000 for any other failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
