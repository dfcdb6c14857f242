package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/feature-tools-mcp/internal/detection"
	"github.com/ironsheep/feature-tools-mcp/internal/imaging"
	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
	"github.com/ironsheep/feature-tools-mcp/internal/matching"
)

// errInvalidParams marks argument errors detected by the handlers themselves.
var errInvalidParams = errors.New("invalid params")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_harris_keypoints").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602, any other failure -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := log.WithFields(log.Fields{
		"tool":       params.Name,
		"elapsed_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
	if err != nil {
		entry.WithError(err).Debug("Tool call failed")
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("Tool call completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func isInvalidParams(err error) bool {
	for _, target := range []error{
		errInvalidParams,
		keypoints.ErrInvalidInput,
		keypoints.ErrInvalidThreshold,
		detection.ErrUnsupportedAperture,
		matching.ErrUnknownMatcher,
		matching.ErrDescriptorKind,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_load_sequence":
		return s.handleImageLoadSequence(args)

	// Keypoint Selection
	case "keypoints_select":
		return s.handleKeypointsSelect(args)
	case "keypoints_overlap":
		return s.handleKeypointsOverlap(args)

	// Detectors
	case "image_harris_response":
		return s.handleHarrisResponse(args)
	case "image_harris_keypoints":
		return s.handleHarrisKeypoints(args)
	case "image_detect_shi_tomasi":
		return s.handleDetectShiTomasi(args)
	case "image_detect_fast":
		return s.handleDetectFAST(args)
	case "image_compare_detectors":
		return s.handleCompareDetectors(args)

	// Matching
	case "descriptors_match":
		return s.handleDescriptorsMatch(args)

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// === Image sources ===

// imageSource selects the image a detector runs on.
type imageSource struct {
	Path       string          `json:"path"`
	SequenceID string          `json:"sequence_id"`
	Frame      *int            `json:"frame"`
	Region     *imaging.Region `json:"region"`
}

// resolvePath returns the file behind a path or a sequence frame.
func (s *Server) resolvePath(src imageSource) (string, error) {
	if src.SequenceID == "" {
		if src.Path == "" {
			return "", fmt.Errorf("%w: path or sequence_id is required", errInvalidParams)
		}
		return src.Path, nil
	}

	seq, ok := s.sequence(src.SequenceID)
	if !ok {
		return "", fmt.Errorf("%w: unknown sequence %s", errInvalidParams, src.SequenceID)
	}
	if src.Frame == nil {
		return "", fmt.Errorf("%w: frame is required with sequence_id", errInvalidParams)
	}
	for _, f := range seq.Frames {
		if f.Number == *src.Frame {
			return f.Path, nil
		}
	}
	return "", fmt.Errorf("%w: sequence %s has no frame %d", errInvalidParams, src.SequenceID, *src.Frame)
}

// sourceGray returns the grayscale image (cropped to the region, if any)
// and the file path it came from.
func (s *Server) sourceGray(src imageSource) (*image.Gray, string, error) {
	path, err := s.resolvePath(src)
	if err != nil {
		return nil, "", err
	}
	gray, err := s.cache.LoadGray(path)
	if err != nil {
		return nil, "", err
	}
	cropped, err := imaging.CropGray(gray, src.Region)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return cropped, path, nil
}

// toImageCoords shifts region-relative keypoints back to full image
// coordinates.
func toImageCoords(kps []keypoints.Keypoint, region *imaging.Region) []keypoints.Keypoint {
	if region == nil {
		return kps
	}
	dx, dy := region.Offset()
	for i := range kps {
		kps[i].X += dx
		kps[i].Y += dy
	}
	return kps
}

type visualizeArgs struct {
	Visualize bool   `json:"visualize"`
	Rich      *bool  `json:"rich"`
	Color     string `json:"color"`
	Grid      int    `json:"grid"`
	ShowIndex bool   `json:"show_index"`
}

func (v visualizeArgs) options() imaging.DrawOptions {
	rich := true
	if v.Rich != nil {
		rich = *v.Rich
	}
	return imaging.DrawOptions{Color: v.Color, Rich: rich, Grid: v.Grid, ShowIndex: v.ShowIndex}
}

// render draws kps on the full image at path when visualization was
// requested.
func (s *Server) render(path string, kps []keypoints.Keypoint, v visualizeArgs) (*imaging.RenderResult, error) {
	if !v.Visualize {
		return nil, nil
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	drawn, err := imaging.DrawKeypoints(img, kps, v.options())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return imaging.Render(drawn)
}

// DetectionResult is returned by the detector tools.
type DetectionResult struct {
	Detector  string                `json:"detector"`
	Keypoints []keypoints.Keypoint  `json:"keypoints"`
	Count     int                   `json:"count"`
	ElapsedMs float64               `json:"elapsed_ms"`
	Image     *imaging.RenderResult `json:"image,omitempty"`
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.cache.Evict(a.Path)
		log.WithField("path", a.Path).Debug("Evicted cached image")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// SequenceResult is returned by image_load_sequence.
type SequenceResult struct {
	SequenceID string `json:"sequence_id"`
	*imaging.Sequence
}

func (s *Server) handleImageLoadSequence(args json.RawMessage) (interface{}, error) {
	a := imaging.SequenceSpec{Digits: 4, Ext: ".png"}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Last < a.First {
		return nil, fmt.Errorf("%w: last %d is before first %d", errInvalidParams, a.Last, a.First)
	}

	seq, err := imaging.LoadSequence(s.cache, a)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	s.putSequence(id, seq)
	log.WithFields(log.Fields{
		"sequence_id": id,
		"frames":      seq.Loaded,
	}).Info("Sequence loaded")

	return &SequenceResult{SequenceID: id, Sequence: seq}, nil
}

// === Keypoint Selection Handlers ===

type keypointsSelectArgs struct {
	Surface          [][]float64 `json:"surface"`
	MinResponse      *float64    `json:"min_response"`
	NeighborhoodSize *float64    `json:"neighborhood_size"`
	MaxOverlap       float64     `json:"max_overlap"`
}

// SelectResult is returned by keypoints_select.
type SelectResult struct {
	Keypoints []keypoints.Keypoint `json:"keypoints"`
	Count     int                  `json:"count"`
}

func (s *Server) handleKeypointsSelect(args json.RawMessage) (interface{}, error) {
	var a keypointsSelectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts := keypoints.Options{MinResponse: 100, NeighborhoodSize: 6, MaxOverlap: a.MaxOverlap}
	if a.MinResponse != nil {
		opts.MinResponse = *a.MinResponse
	}
	if a.NeighborhoodSize != nil {
		opts.NeighborhoodSize = *a.NeighborhoodSize
	}

	surface, err := keypoints.SurfaceFromGrid(a.Surface)
	if err != nil {
		return nil, err
	}
	kps, err := keypoints.Select(surface, opts)
	if err != nil {
		return nil, err
	}
	return &SelectResult{Keypoints: kps, Count: len(kps)}, nil
}

type keypointsOverlapArgs struct {
	A keypoints.Keypoint `json:"a"`
	B keypoints.Keypoint `json:"b"`
}

func (s *Server) handleKeypointsOverlap(args json.RawMessage) (interface{}, error) {
	var a keypointsOverlapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.A.Size < 0 || a.B.Size < 0 {
		return nil, fmt.Errorf("%w: keypoint size must not be negative", keypoints.ErrInvalidInput)
	}
	return map[string]interface{}{
		"overlap": keypoints.Overlap(a.A, a.B),
	}, nil
}

// === Detector Handlers ===

type harrisArgs struct {
	imageSource
	visualizeArgs
	BlockSize    int      `json:"block_size"`
	ApertureSize int      `json:"aperture_size"`
	K            *float64 `json:"k"`
	MinResponse  *float64 `json:"min_response"`
	MaxOverlap   float64  `json:"max_overlap"`
	Truncate     bool     `json:"truncate_response"`
}

func (a harrisArgs) config() detection.HarrisConfig {
	cfg := detection.DefaultHarrisConfig()
	if a.BlockSize != 0 {
		cfg.BlockSize = a.BlockSize
	}
	if a.ApertureSize != 0 {
		cfg.ApertureSize = a.ApertureSize
	}
	if a.K != nil {
		cfg.K = *a.K
	}
	if a.MinResponse != nil {
		cfg.MinResponse = *a.MinResponse
	}
	cfg.MaxOverlap = a.MaxOverlap
	cfg.TruncateResponse = a.Truncate
	return cfg
}

// HarrisResponseResult is returned by image_harris_response.
type HarrisResponseResult struct {
	RawMin float64 `json:"raw_min"`
	RawMax float64 `json:"raw_max"`
	*imaging.RenderResult
}

func (s *Server) handleHarrisResponse(args json.RawMessage) (interface{}, error) {
	var a harrisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	gray, _, err := s.sourceGray(a.imageSource)
	if err != nil {
		return nil, err
	}

	raw, err := detection.CornerHarris(gray, a.config().HarrisParams)
	if err != nil {
		return nil, err
	}
	lo, hi := raw.MinMax()
	rendered, err := imaging.Render(detection.SurfaceToGray(detection.NormalizeMinMax(raw, 0, 255)))
	if err != nil {
		return nil, err
	}
	return &HarrisResponseResult{RawMin: lo, RawMax: hi, RenderResult: rendered}, nil
}

// HarrisKeypointsResult is returned by image_harris_keypoints.
type HarrisKeypointsResult struct {
	*detection.HarrisResult
	ElapsedMs float64               `json:"elapsed_ms"`
	Image     *imaging.RenderResult `json:"image,omitempty"`
}

func (s *Server) handleHarrisKeypoints(args json.RawMessage) (interface{}, error) {
	var a harrisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	gray, path, err := s.sourceGray(a.imageSource)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := detection.HarrisKeypoints(gray, a.config())
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	res.Keypoints = toImageCoords(res.Keypoints, a.Region)

	rendered, err := s.render(path, res.Keypoints, a.visualizeArgs)
	if err != nil {
		return nil, err
	}
	return &HarrisKeypointsResult{
		HarrisResult: res,
		ElapsedMs:    float64(elapsed.Microseconds()) / 1000,
		Image:        rendered,
	}, nil
}

type shiTomasiArgs struct {
	imageSource
	visualizeArgs
	BlockSize    int      `json:"block_size"`
	QualityLevel float64  `json:"quality_level"`
	MaxOverlap   float64  `json:"max_overlap"`
	MinDistance  *float64 `json:"min_distance"`
	MaxCorners   *int     `json:"max_corners"`
}

func (a shiTomasiArgs) params(width, height int) detection.ShiTomasiParams {
	p := detection.DefaultShiTomasiParams(width, height, a.MaxOverlap)
	if a.BlockSize != 0 {
		p.BlockSize = a.BlockSize
		p.MinDistance = (1 - a.MaxOverlap) * float64(a.BlockSize)
	}
	if a.QualityLevel != 0 {
		p.QualityLevel = a.QualityLevel
	}
	if a.MinDistance != nil {
		p.MinDistance = *a.MinDistance
	}
	if a.MaxCorners != nil {
		p.MaxCorners = *a.MaxCorners
	} else {
		p.MaxCorners = int(float64(width*height) / max(1.0, p.MinDistance))
	}
	return p
}

func (s *Server) handleDetectShiTomasi(args json.RawMessage) (interface{}, error) {
	var a shiTomasiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	gray, path, err := s.sourceGray(a.imageSource)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	kps, err := detection.ShiTomasi(gray, a.params(gray.Bounds().Dx(), gray.Bounds().Dy()))
	if err != nil {
		return nil, err
	}
	return s.detectionResult("shi_tomasi", path, kps, time.Since(start), a.Region, a.visualizeArgs)
}

type fastArgs struct {
	imageSource
	visualizeArgs
	Threshold         *int               `json:"threshold"`
	NonmaxSuppression *bool              `json:"nonmax_suppression"`
	Type              detection.FASTType `json:"type"`
}

func (a fastArgs) params() detection.FASTParams {
	p := detection.DefaultFASTParams()
	if a.Threshold != nil {
		p.Threshold = *a.Threshold
	}
	if a.NonmaxSuppression != nil {
		p.NonmaxSuppression = *a.NonmaxSuppression
	}
	if a.Type != "" {
		p.Type = a.Type
	}
	return p
}

func (s *Server) handleDetectFAST(args json.RawMessage) (interface{}, error) {
	var a fastArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	gray, path, err := s.sourceGray(a.imageSource)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	kps, err := detection.FAST(gray, a.params())
	if err != nil {
		return nil, err
	}
	return s.detectionResult("fast", path, kps, time.Since(start), a.Region, a.visualizeArgs)
}

func (s *Server) detectionResult(name, path string, kps []keypoints.Keypoint, elapsed time.Duration, region *imaging.Region, v visualizeArgs) (*DetectionResult, error) {
	kps = toImageCoords(kps, region)
	rendered, err := s.render(path, kps, v)
	if err != nil {
		return nil, err
	}
	return &DetectionResult{
		Detector:  name,
		Keypoints: kps,
		Count:     len(kps),
		ElapsedMs: float64(elapsed.Microseconds()) / 1000,
		Image:     rendered,
	}, nil
}

type compareArgs struct {
	imageSource
	MaxOverlap float64            `json:"max_overlap"`
	Threshold  *int               `json:"threshold"`
	Type       detection.FASTType `json:"type"`
}

func (s *Server) handleCompareDetectors(args json.RawMessage) (interface{}, error) {
	var a compareArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	gray, _, err := s.sourceGray(a.imageSource)
	if err != nil {
		return nil, err
	}

	st := shiTomasiArgs{MaxOverlap: a.MaxOverlap}.params(gray.Bounds().Dx(), gray.Bounds().Dy())
	fp := fastArgs{Threshold: a.Threshold, Type: a.Type}.params()
	return detection.CompareDetectors(gray, st, fp)
}

// === Matching Handlers ===

type descriptorsMatchArgs struct {
	SourceDescriptors string  `json:"source_descriptors"`
	RefDescriptors    string  `json:"ref_descriptors"`
	Matcher           string  `json:"matcher"`
	Descriptor        string  `json:"descriptor"`
	Selector          string  `json:"selector"`
	CrossCheck        bool    `json:"cross_check"`
	Ratio             float64 `json:"ratio"`

	SourceKeypoints string `json:"source_keypoints"`
	RefKeypoints    string `json:"ref_keypoints"`
	SourceImage     string `json:"source_image"`
	RefImage        string `json:"ref_image"`
	visualizeArgs
}

func (a descriptorsMatchArgs) config() matching.Config {
	cfg := matching.DefaultConfig()
	if a.Matcher != "" {
		cfg.Matcher = matching.MatcherType(a.Matcher)
	}
	if a.Descriptor != "" {
		cfg.Descriptor = matching.DescriptorType(a.Descriptor)
	}
	if a.Selector != "" {
		cfg.Selector = matching.SelectorType(a.Selector)
	}
	cfg.CrossCheck = a.CrossCheck
	if a.Ratio != 0 {
		cfg.Ratio = a.Ratio
	}
	return cfg
}

// MatchResult is returned by descriptors_match.
type MatchResult struct {
	*matching.Result
	Image *imaging.RenderResult `json:"image,omitempty"`
}

func (s *Server) handleDescriptorsMatch(args json.RawMessage) (interface{}, error) {
	var a descriptorsMatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.SourceDescriptors == "" || a.RefDescriptors == "" {
		return nil, fmt.Errorf("%w: source_descriptors and ref_descriptors are required", errInvalidParams)
	}

	src, err := matching.LoadDescriptorsFile(a.SourceDescriptors)
	if err != nil {
		return nil, err
	}
	ref, err := matching.LoadDescriptorsFile(a.RefDescriptors)
	if err != nil {
		return nil, err
	}
	res, err := matching.Match(src, ref, a.config())
	if err != nil {
		return nil, err
	}

	out := &MatchResult{Result: res}
	if !a.Visualize {
		return out, nil
	}
	if a.SourceKeypoints == "" || a.RefKeypoints == "" || a.SourceImage == "" || a.RefImage == "" {
		return nil, fmt.Errorf("%w: visualize needs source/ref keypoints and images", errInvalidParams)
	}
	out.Image, err = s.renderMatches(a, res.Matches)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) renderMatches(a descriptorsMatchArgs, matches []matching.DMatch) (*imaging.RenderResult, error) {
	kpsA, err := matching.LoadKeypointsFile(a.SourceKeypoints)
	if err != nil {
		return nil, err
	}
	kpsB, err := matching.LoadKeypointsFile(a.RefKeypoints)
	if err != nil {
		return nil, err
	}
	imgA, err := s.cache.Load(a.SourceImage)
	if err != nil {
		return nil, err
	}
	imgB, err := s.cache.Load(a.RefImage)
	if err != nil {
		return nil, err
	}

	pairs := make([]imaging.Correspondence, len(matches))
	for i, m := range matches {
		pairs[i] = imaging.Correspondence{A: m.QueryIdx, B: m.TrainIdx}
	}
	drawn, err := imaging.DrawMatches(imgA, kpsA, imgB, kpsB, pairs, a.options())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return imaging.Render(drawn)
}
