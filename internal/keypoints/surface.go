package keypoints

import (
	"fmt"
	"math"
)

// Surface is a dense grid of response scores stored in row-major order.
//
// Data has exactly Rows*Cols elements; the score of (row, col) lives at
// Data[row*Cols+col].
type Surface struct {
	Rows int
	Cols int
	Data []float64
}

// NewSurface wraps row-major data as a Surface.
//
// The data slice is used directly, not copied. Callers must not modify it
// while a selection over the surface is running.
//
// # Errors
//
//   - ErrInvalidInput if rows or cols is not positive
//   - ErrInvalidInput if len(data) != rows*cols
func NewSurface(rows, cols int, data []float64) (*Surface, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: surface dimensions %dx%d must be positive", ErrInvalidInput, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: surface data has %d values, want %d", ErrInvalidInput, len(data), rows*cols)
	}
	return &Surface{Rows: rows, Cols: cols, Data: data}, nil
}

// ZeroSurface allocates a rows x cols surface filled with zeros.
func ZeroSurface(rows, cols int) (*Surface, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: surface dimensions %dx%d must be positive", ErrInvalidInput, rows, cols)
	}
	return &Surface{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}, nil
}

// SurfaceFromGrid copies a [row][col] grid into a new Surface.
//
// Every row must have the same, non-zero length.
func SurfaceFromGrid(grid [][]float64) (*Surface, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: surface has no rows", ErrInvalidInput)
	}
	cols := len(grid[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: surface has no columns", ErrInvalidInput)
	}
	data := make([]float64, 0, len(grid)*cols)
	for r, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, r, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Surface{Rows: len(grid), Cols: cols, Data: data}, nil
}

// At returns the score at (row, col). It panics if the index is out of range.
func (s *Surface) At(row, col int) float64 {
	return s.Data[row*s.Cols+col]
}

// Set stores v at (row, col).
func (s *Surface) Set(row, col int, v float64) {
	s.Data[row*s.Cols+col] = v
}

// MinMax returns the smallest and largest score on the surface.
func (s *Surface) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func (s *Surface) validate() error {
	if s == nil || s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: surface is empty", ErrInvalidInput)
	}
	if len(s.Data) != s.Rows*s.Cols {
		return fmt.Errorf("%w: surface data has %d values, want %d", ErrInvalidInput, len(s.Data), s.Rows*s.Cols)
	}
	return nil
}
