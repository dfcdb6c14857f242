// Package matching pairs keypoint descriptors between two images.
//
// Match supports the two matcher families of the classic tracking pipeline:
//
//   - MAT_BF: brute force. Binary descriptors are compared by Hamming
//     distance, gradient descriptors by L2 distance.
//   - MAT_FLANN: L2 search over float32 rows. Binary descriptors are
//     converted element-wise first. The search is exhaustive, so results
//     equal those of brute-force L2.
//
// and two selectors:
//
//   - SEL_NN: the nearest reference row per query, optionally restricted to
//     mutual nearest neighbours (cross check)
//   - SEL_KNN: the two nearest rows, kept only when the best is clearly
//     better than the runner-up (distance ratio test, 0.8 by default)
//
// Keypoints and descriptors are exchanged as small little-endian blobs; see
// WriteKeypoints and WriteDescriptors for the layouts.
package matching
