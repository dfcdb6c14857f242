package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// RenderResult is an image prepared for display by an MCP client.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes an image as base64 PNG.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Render wraps an image as a RenderResult.
func Render(img image.Image) (*RenderResult, error) {
	encoded, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &RenderResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
