// Package detection produces corner response surfaces and keypoints from
// grayscale images.
//
// It holds the detectors that feed the keypoint selector and the ones it is
// compared against:
//
//   - Harris: CornerHarris builds the response surface, HarrisKeypoints
//     normalises it to 0..255 and hands it to keypoints.Select
//   - Shi-Tomasi: minimum eigenvalue of the structure tensor with
//     quality, local-maximum and minimum-distance filtering
//   - FAST: segment test on a Bresenham circle with optional non-maximum
//     suppression
//
// CompareDetectors runs Shi-Tomasi and FAST side by side and reports
// keypoint counts, timing and how the keypoints spread over the image.
//
// # Coordinate System
//
// Surfaces have one cell per pixel, Rows = height and Cols = width.
// Keypoints use X = column and Y = row with the origin at the top-left
// pixel of the input, whatever its image.Rectangle says.
//
// # Numerical Conventions
//
// Gradients and windows follow OpenCV for 8-bit input: Sobel kernels of
// size 3 or 5, mirrored borders that do not repeat the edge pixel, and the
// same derivative scaling, so responses are directly comparable with
// cornerHarris and cornerMinEigenVal output.
//
// # Performance Considerations
//
// Filtering passes are split across goroutines by row. Everything else,
// including keypoint selection, is sequential.
package detection
