package matching

import (
	"fmt"
	"math"
	"time"

	"github.com/steakknife/hamming"
	"github.com/viant/vec/search"
)

// MatcherType selects how candidate matches are searched.
type MatcherType string

const (
	// MatBF compares every query row with every reference row.
	MatBF MatcherType = "MAT_BF"
	// MatFLANN converts descriptors to float32 and searches by L2 distance.
	MatFLANN MatcherType = "MAT_FLANN"
)

// DescriptorType names the descriptor family, which fixes the norm used by
// the brute-force matcher.
type DescriptorType string

const (
	// DesBinary descriptors (BRISK, ORB, BRIEF) use Hamming distance.
	DesBinary DescriptorType = "DES_BINARY"
	// DesHOG descriptors (SIFT, SURF) use L2 distance.
	DesHOG DescriptorType = "DES_HOG"
)

// SelectorType selects how the final match per query is chosen.
type SelectorType string

const (
	// SelNN keeps the nearest neighbour of every query row.
	SelNN SelectorType = "SEL_NN"
	// SelKNN finds the K nearest neighbours and applies the distance ratio
	// test.
	SelKNN SelectorType = "SEL_KNN"
)

// Norm is the distance function applied to descriptor rows.
type Norm string

const (
	NormHamming Norm = "hamming"
	NormL2      Norm = "l2"
)

// Config configures Match.
type Config struct {
	Matcher    MatcherType    `json:"matcher"`
	Descriptor DescriptorType `json:"descriptor"`
	Selector   SelectorType   `json:"selector"`

	// CrossCheck keeps only mutual nearest neighbours. It applies to SelNN.
	CrossCheck bool `json:"cross_check"`

	// Ratio is the distance ratio threshold for SelKNN. Zero means 0.8.
	Ratio float64 `json:"ratio"`

	// K is the number of neighbours SelKNN retrieves, at least 2. The ratio
	// test uses the first two.
	K int `json:"k"`
}

// DefaultConfig returns brute-force Hamming matching with nearest neighbour
// selection. Ratio and K are preset for SelKNN.
func DefaultConfig() Config {
	return Config{
		Matcher:    MatBF,
		Descriptor: DesBinary,
		Selector:   SelNN,
		Ratio:      0.8,
		K:          2,
	}
}

// DMatch pairs a query row with a reference row.
type DMatch struct {
	QueryIdx int     `json:"query_idx"`
	TrainIdx int     `json:"train_idx"`
	Distance float64 `json:"distance"`
}

// Result is the output of Match.
type Result struct {
	Matches []DMatch `json:"matches"`
	Count   int     `json:"count"`

	// Norm is the distance actually used.
	Norm Norm `json:"norm"`

	// Candidates is the number of queries that had a candidate match before
	// filtering. Removed is how many of those the ratio test or the cross
	// check dropped.
	Candidates int `json:"candidates"`
	Removed    int `json:"removed"`

	ElapsedMs float64 `json:"elapsed_ms"`
}

// Match finds correspondences between source (query) and reference (train)
// descriptors.
//
// With MatBF the norm follows the descriptor type: Hamming for DesBinary,
// L2 otherwise. MatFLANN always uses L2 over float32 rows, converting binary
// descriptors first. Either set being empty yields no matches, and so does
// a query whose distance to every reference row is NaN or infinite.
//
// # Errors
//
//   - ErrUnknownMatcher for unrecognised Matcher, Descriptor or Selector
//   - ErrDescriptorKind for Hamming distance over float descriptors
//   - ErrDimensionMismatch if the two sets have different row lengths
func Match(src, ref *Descriptors, cfg Config) (*Result, error) {
	norm, err := resolveNorm(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Selector != SelNN && cfg.Selector != SelKNN {
		return nil, fmt.Errorf("%w: selector %q", ErrUnknownMatcher, cfg.Selector)
	}

	result := &Result{Matches: make([]DMatch, 0), Norm: norm}
	if src.Len() == 0 || ref.Len() == 0 {
		return result, nil
	}
	if src.Dim() != ref.Dim() {
		return nil, fmt.Errorf("%w: source rows have %d elements, reference rows %d", ErrDimensionMismatch, src.Dim(), ref.Dim())
	}

	dist, err := distanceFunc(norm, src, ref)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	switch cfg.Selector {
	case SelNN:
		matchNN(result, src.Len(), ref.Len(), dist, cfg.CrossCheck)
	case SelKNN:
		k := cfg.K
		if k < 2 {
			k = 2
		}
		ratio := cfg.Ratio
		if ratio <= 0 || math.IsNaN(ratio) {
			ratio = 0.8
		}
		matchKNN(result, src.Len(), ref.Len(), dist, k, ratio)
	}
	result.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000
	result.Count = len(result.Matches)

	return result, nil
}

func resolveNorm(cfg Config) (Norm, error) {
	switch cfg.Descriptor {
	case DesBinary, DesHOG:
	default:
		return "", fmt.Errorf("%w: descriptor %q", ErrUnknownMatcher, cfg.Descriptor)
	}
	switch cfg.Matcher {
	case MatBF:
		if cfg.Descriptor == DesBinary {
			return NormHamming, nil
		}
		return NormL2, nil
	case MatFLANN:
		return NormL2, nil
	default:
		return "", fmt.Errorf("%w: matcher %q", ErrUnknownMatcher, cfg.Matcher)
	}
}

// distanceFunc returns dist(i, j) between source row i and reference row j.
func distanceFunc(norm Norm, src, ref *Descriptors) (func(i, j int) float64, error) {
	if norm == NormHamming {
		if src.Kind != KindBinary || ref.Kind != KindBinary {
			return nil, fmt.Errorf("%w: hamming needs binary descriptors, got %s and %s", ErrDescriptorKind, src.Kind, ref.Kind)
		}
		a, b := src.Binary, ref.Binary
		return func(i, j int) float64 {
			return float64(hamming.Bytes(a[i], b[j]))
		}, nil
	}

	a, b := src.AsFloat(), ref.AsFloat()
	return func(i, j int) float64 {
		return float64(search.Float32s(a[i]).EuclideanDistance(b[j]))
	}, nil
}

// nearest returns the index of the smallest finite dist(i, ·) over n rows,
// taking the lowest index on ties. ok is false when no distance is finite.
func nearest(n int, dist func(j int) float64) (best int, bestD float64, ok bool) {
	best, bestD = -1, math.Inf(1)
	for j := 0; j < n; j++ {
		if d := dist(j); finite(d) && d < bestD {
			best, bestD = j, d
		}
	}
	return best, bestD, best >= 0
}

// finite reports whether d can rank a neighbour. Float32 L2 overflows to
// +Inf for very large components.
func finite(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0)
}

func matchNN(result *Result, nSrc, nRef int, dist func(i, j int) float64, crossCheck bool) {
	forward := make([]DMatch, 0, nSrc)
	for i := 0; i < nSrc; i++ {
		j, d, ok := nearest(nRef, func(j int) float64 { return dist(i, j) })
		if !ok {
			continue
		}
		forward = append(forward, DMatch{QueryIdx: i, TrainIdx: j, Distance: d})
	}
	result.Candidates = len(forward)

	if !crossCheck {
		result.Matches = append(result.Matches, forward...)
		return
	}

	// Reciprocal: keep i -> j only when j's nearest source row is i.
	backward := make(map[int]int, nRef)
	for _, m := range forward {
		if _, ok := backward[m.TrainIdx]; ok {
			continue
		}
		back, _, _ := nearest(nSrc, func(i int) float64 { return dist(i, m.TrainIdx) })
		backward[m.TrainIdx] = back
	}
	for _, m := range forward {
		if backward[m.TrainIdx] == m.QueryIdx {
			result.Matches = append(result.Matches, m)
		}
	}
	result.Removed = result.Candidates - len(result.Matches)
}

func matchKNN(result *Result, nSrc, nRef int, dist func(i, j int) float64, k int, ratio float64) {
	for i := 0; i < nSrc; i++ {
		h := newNeighborHeap(k)
		for j := 0; j < nRef; j++ {
			if d := dist(i, j); finite(d) {
				h.Add(j, d)
			}
		}
		neighbors := h.Sorted()
		if len(neighbors) == 0 {
			continue
		}
		result.Candidates++

		// A single neighbour cannot be ambiguous.
		if len(neighbors) < 2 || neighbors[0].distance < ratio*neighbors[1].distance {
			result.Matches = append(result.Matches, DMatch{
				QueryIdx: i,
				TrainIdx: neighbors[0].idx,
				Distance: neighbors[0].distance,
			})
		}
	}
	result.Removed = result.Candidates - len(result.Matches)
}
