package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties are accepted by every tool that works on one image.
// Either path or sequence_id plus frame must be given.
func imageSourceProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"sequence_id": map[string]interface{}{
			"type":        "string",
			"description": "ID returned by image_load_sequence; use with frame instead of path",
		},
		"frame": map[string]interface{}{
			"type":        "integer",
			"description": "Frame number within the sequence",
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional region of interest; x1,y1 inclusive, x2,y2 exclusive. Keypoints are reported in full image coordinates.",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var visualizeProperties = map[string]interface{}{
	"visualize": map[string]interface{}{
		"type":        "boolean",
		"description": "Return the image with keypoints drawn on it as base64 PNG",
		"default":     false,
	},
	"rich": map[string]interface{}{
		"type":        "boolean",
		"description": "Draw a circle of the keypoint size around each keypoint",
		"default":     true,
	},
	"color": map[string]interface{}{
		"type":        "string",
		"description": "Hex marker color such as #00ff00. Default gives each keypoint its own hue",
	},
	"grid": map[string]interface{}{
		"type":        "integer",
		"description": "Draw a labelled coordinate grid with this spacing in pixels. 0 disables it",
		"default":     0,
	},
	"show_index": map[string]interface{}{
		"type":        "boolean",
		"description": "Label each keypoint with its index in the result, or each match with its match index",
		"default":     false,
	},
}

func withVisualize(props map[string]interface{}) map[string]interface{} {
	for k, v := range visualizeProperties {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop any cached copy and read the file again",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_load_sequence",
			Description: "Load a numbered run of image files (<prefix><number><ext>) and register it under a sequence ID. Frames listed in skip are loaded but not displayed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory holding the frames",
					},
					"prefix": map[string]interface{}{
						"type":        "string",
						"description": "File name prefix, e.g. img",
					},
					"first": map[string]interface{}{
						"type":        "integer",
						"description": "First frame number (inclusive)",
					},
					"last": map[string]interface{}{
						"type":        "integer",
						"description": "Last frame number (inclusive)",
					},
					"digits": map[string]interface{}{
						"type":        "integer",
						"description": "Zero-padded width of the frame number",
						"default":     4,
					},
					"ext": map[string]interface{}{
						"type":        "string",
						"description": "File extension including the dot",
						"default":     ".png",
					},
					"skip": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Frame numbers to load without displaying",
					},
					"thumbnail_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longer edge of the preview returned per displayed frame. 0 disables previews",
						"default":     0,
					},
				},
				"required": []string{"dir", "first", "last"},
			},
		},

		// Keypoint Selection
		{
			Name:        "keypoints_select",
			Description: "Select keypoints from a response surface by greedy non-maximum suppression. Cells scoring above min_response become candidates; overlapping candidates keep the stronger one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"surface": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "number"}},
						"description": "Response surface as rows of scores",
					},
					"min_response": map[string]interface{}{
						"type":        "number",
						"description": "Exclusive lower bound on scores",
						"default":     100,
					},
					"neighborhood_size": map[string]interface{}{
						"type":        "number",
						"description": "Diameter given to every keypoint",
						"default":     6,
					},
					"max_overlap": map[string]interface{}{
						"type":        "number",
						"description": "Largest tolerated overlap fraction in [0, 1)",
						"default":     0,
					},
				},
				"required": []string{"surface"},
			},
		},
		{
			Name:        "keypoints_overlap",
			Description: "Compute the intersection-over-union of two keypoint discs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"a": map[string]interface{}{
						"type":        "object",
						"description": "First keypoint {x, y, size}",
					},
					"b": map[string]interface{}{
						"type":        "object",
						"description": "Second keypoint {x, y, size}",
					},
				},
				"required": []string{"a", "b"},
			},
		},

		// Detectors
		{
			Name:        "image_harris_response",
			Description: "Compute the Harris corner response, normalized to 0..255, and return it as a grayscale PNG with the raw response range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": imageSourceProperties(map[string]interface{}{
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Structure tensor window size",
						"default":     2,
					},
					"aperture_size": map[string]interface{}{
						"type":        "integer",
						"description": "Sobel kernel size, 3 or 5",
						"default":     3,
					},
					"k": map[string]interface{}{
						"type":        "number",
						"description": "Harris free parameter",
						"default":     0.04,
					},
				}),
			},
		},
		{
			Name:        "image_harris_keypoints",
			Description: "Detect Harris corners and select keypoints from the normalized response with non-maximum suppression.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withVisualize(imageSourceProperties(map[string]interface{}{
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Structure tensor window size",
						"default":     2,
					},
					"aperture_size": map[string]interface{}{
						"type":        "integer",
						"description": "Sobel kernel size, 3 or 5",
						"default":     3,
					},
					"k": map[string]interface{}{
						"type":        "number",
						"description": "Harris free parameter",
						"default":     0.04,
					},
					"min_response": map[string]interface{}{
						"type":        "number",
						"description": "Exclusive lower bound on the normalized response",
						"default":     100,
					},
					"max_overlap": map[string]interface{}{
						"type":        "number",
						"description": "Largest tolerated overlap between keypoints in [0, 1)",
						"default":     0,
					},
					"truncate_response": map[string]interface{}{
						"type":        "boolean",
						"description": "Truncate normalized responses to integers before selection",
						"default":     false,
					},
				})),
			},
		},
		{
			Name:        "image_detect_shi_tomasi",
			Description: "Detect Shi-Tomasi corners (good features to track). Defaults derive the minimum distance and corner cap from max_overlap.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withVisualize(imageSourceProperties(map[string]interface{}{
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Structure tensor window and keypoint size",
						"default":     6,
					},
					"quality_level": map[string]interface{}{
						"type":        "number",
						"description": "Fraction of the strongest response a corner must exceed",
						"default":     0.01,
					},
					"max_overlap": map[string]interface{}{
						"type":        "number",
						"description": "Sets min_distance to (1-max_overlap)*block_size when min_distance is not given",
						"default":     0,
					},
					"min_distance": map[string]interface{}{
						"type":        "number",
						"description": "Smallest distance between returned corners",
					},
					"max_corners": map[string]interface{}{
						"type":        "integer",
						"description": "Corner cap. Default is the image area over min_distance",
					},
				})),
			},
		},
		{
			Name:        "image_detect_fast",
			Description: "Detect FAST corners using the segment test on a Bresenham circle.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withVisualize(imageSourceProperties(map[string]interface{}{
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Intensity difference threshold (0-255)",
						"default":     50,
					},
					"nonmax_suppression": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only corners that beat all eight neighbors",
						"default":     true,
					},
					"type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"9_16", "7_12", "5_8"},
						"description": "Circle pattern",
						"default":     "9_16",
					},
				})),
			},
		},
		{
			Name:        "image_compare_detectors",
			Description: "Run Shi-Tomasi and FAST on the same image and compare keypoint count, speed and spatial distribution.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": imageSourceProperties(map[string]interface{}{
					"max_overlap": map[string]interface{}{
						"type":        "number",
						"description": "Shi-Tomasi overlap tolerance",
						"default":     0,
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "FAST threshold",
						"default":     50,
					},
					"type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"9_16", "7_12", "5_8"},
						"description": "FAST circle pattern",
						"default":     "9_16",
					},
				}),
			},
		},

		// Matching
		{
			Name:        "descriptors_match",
			Description: "Match descriptors stored in binary blob files with brute force or FLANN-style L2 search, using nearest neighbor or k-nearest-neighbor ratio selection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source_descriptors": map[string]interface{}{
						"type":        "string",
						"description": "Path to the query descriptor blob",
					},
					"ref_descriptors": map[string]interface{}{
						"type":        "string",
						"description": "Path to the reference descriptor blob",
					},
					"matcher": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"MAT_BF", "MAT_FLANN"},
						"default": "MAT_BF",
					},
					"descriptor": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"DES_BINARY", "DES_HOG"},
						"default": "DES_BINARY",
					},
					"selector": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"SEL_NN", "SEL_KNN"},
						"default": "SEL_NN",
					},
					"cross_check": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only mutual nearest neighbors (SEL_NN)",
						"default":     false,
					},
					"ratio": map[string]interface{}{
						"type":        "number",
						"description": "Distance ratio threshold (SEL_KNN)",
						"default":     0.8,
					},
					"source_keypoints": map[string]interface{}{
						"type":        "string",
						"description": "Keypoint blob for the query image, needed for visualization",
					},
					"ref_keypoints": map[string]interface{}{
						"type":        "string",
						"description": "Keypoint blob for the reference image, needed for visualization",
					},
					"source_image": map[string]interface{}{
						"type":        "string",
						"description": "Query image, needed for visualization",
					},
					"ref_image": map[string]interface{}{
						"type":        "string",
						"description": "Reference image, needed for visualization",
					},
					"visualize": map[string]interface{}{
						"type":        "boolean",
						"description": "Return both images side by side with matches drawn",
						"default":     false,
					},
				},
				"required": []string{"source_descriptors", "ref_descriptors"},
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
