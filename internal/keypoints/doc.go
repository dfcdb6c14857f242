// Package keypoints selects sparse, non-overlapping keypoints from a dense
// response surface.
//
// A response surface is a grid of per-pixel scores (for example the
// normalized Harris cornerness of an image). Select walks the grid once and
// greedily keeps local maxima whose neighborhoods do not overlap beyond a
// configured fraction.
//
// # Coordinate System
//
// Surfaces are indexed by (row, column). Keypoints use image coordinates:
//   - X is the column index (0 = leftmost)
//   - Y is the row index (0 = topmost)
//
// A value stored at surface row 2, column 5 produces a keypoint at X=5, Y=2.
//
// # Scan Order
//
// Cells are visited in row-major order: row outer, column inner. The order is
// part of the contract because it decides which candidate reaches the
// keypoint set first, and therefore which existing keypoint a later,
// stronger candidate replaces.
//
// # Overlap
//
// Each keypoint owns a disc of diameter Size centered on (X, Y). The overlap
// of two keypoints is the intersection area of their discs divided by the
// union area, the same measure OpenCV uses for cv::KeyPoint::overlap.
//
// # Replacement Policy
//
// When a candidate conflicts with an existing keypoint and has a strictly
// higher response, it replaces the first such keypoint in set order and the
// comparison stops. Other conflicting keypoints further along the set are
// left untouched, and a replacement can reintroduce overlap with a keypoint
// that was checked against the previous occupant of the slot. The result is
// not re-validated. This matches the reference exercise output exactly; it
// is not a global non-maximum suppression.
//
// # Thread Safety
//
// Select is a pure function of its arguments. It runs sequentially and never
// mutates the surface, so one Surface may be shared by concurrent callers.
package keypoints
