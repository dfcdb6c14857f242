package matching

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when descriptor rows differ in length,
	// within one set or between the two sets being matched.
	ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

	// ErrUnknownMatcher is returned for an unrecognised matcher, descriptor
	// or selector name.
	ErrUnknownMatcher = errors.New("unknown matcher configuration")

	// ErrDescriptorKind is returned when the requested norm cannot be applied
	// to the descriptors, such as Hamming distance over float rows.
	ErrDescriptorKind = errors.New("descriptor kind not supported by norm")

	// ErrCorruptBlob is returned when a serialized keypoint or descriptor
	// blob is truncated or not in the expected format.
	ErrCorruptBlob = errors.New("corrupt blob")

	// ErrNonFinite is returned for float descriptors holding NaN or an
	// infinity.
	ErrNonFinite = errors.New("non-finite descriptor value")
)

// Kind identifies how descriptor rows are stored.
type Kind uint8

const (
	// KindBinary rows are bit strings packed into bytes.
	KindBinary Kind = 1
	// KindFloat rows are float32 vectors.
	KindFloat Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Descriptors is a set of equally sized descriptor rows, one per keypoint.
// Exactly one of Binary and Float is used, as given by Kind.
type Descriptors struct {
	Kind   Kind
	Binary [][]byte
	Float  [][]float32
}

// NewBinaryDescriptors wraps binary rows. All rows must have the same length.
func NewBinaryDescriptors(rows [][]byte) (*Descriptors, error) {
	for i := range rows {
		if len(rows[i]) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d bytes, want %d", ErrDimensionMismatch, i, len(rows[i]), len(rows[0]))
		}
	}
	return &Descriptors{Kind: KindBinary, Binary: rows}, nil
}

// NewFloatDescriptors wraps float rows. All rows must have the same length
// and hold only finite values.
func NewFloatDescriptors(rows [][]float32) (*Descriptors, error) {
	for i := range rows {
		if len(rows[i]) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(rows[i]), len(rows[0]))
		}
	}
	if err := checkFinite(rows); err != nil {
		return nil, err
	}
	return &Descriptors{Kind: KindFloat, Float: rows}, nil
}

func checkFinite(rows [][]float32) error {
	for i, row := range rows {
		for j, v := range row {
			if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: row %d value %d is %v", ErrNonFinite, i, j, v)
			}
		}
	}
	return nil
}

// Len returns the number of rows.
func (d *Descriptors) Len() int {
	if d == nil {
		return 0
	}
	if d.Kind == KindBinary {
		return len(d.Binary)
	}
	return len(d.Float)
}

// Dim returns the row length in elements: bytes for binary rows, values for
// float rows. It is 0 for an empty set.
func (d *Descriptors) Dim() int {
	if d.Len() == 0 {
		return 0
	}
	if d.Kind == KindBinary {
		return len(d.Binary[0])
	}
	return len(d.Float[0])
}

// AsFloat returns the rows as float32 vectors. Binary rows are converted
// byte by byte, so a 64 byte descriptor becomes a 64 value vector.
func (d *Descriptors) AsFloat() [][]float32 {
	if d.Kind == KindFloat {
		return d.Float
	}
	out := make([][]float32, len(d.Binary))
	for i, row := range d.Binary {
		v := make([]float32, len(row))
		for j, b := range row {
			v[j] = float32(b)
		}
		out[i] = v
	}
	return out
}
