// Package imaging provides the image plumbing around the feature detectors:
// loading and caching, grayscale conversion, region-of-interest crops, image
// sequences, and rendering of keypoints and matches.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel), the column of a response surface
//   - Y: vertical position (0 = topmost pixel), the row of a response surface
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Grayscale images returned by ToGray and CropRegion are rebased so that
// their bounds start at (0,0). Keypoints detected on a crop are therefore
// relative to the crop; use Region.Offset to map them back.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Rendering functions never
// modify their inputs and always return a new image.
//
// # Rendering
//
// DrawKeypoints and DrawMatches stand in for an on-screen window: they return
// images that the server encodes as base64 PNG. Each keypoint is drawn as a
// circle whose diameter is the keypoint size, with a center mark, in a color
// chosen per keypoint unless a fixed color is requested. A labelled
// coordinate grid can be drawn underneath to read positions off the image.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds or with x1 >= x2 or y1 >= y2
//   - File I/O and decoding errors during image loading
//   - Malformed color strings and encoding errors during output
package imaging
