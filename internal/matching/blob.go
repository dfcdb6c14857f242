package matching

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ironsheep/feature-tools-mcp/internal/keypoints"
)

// Blob magics.
var (
	keypointMagic   = [4]byte{'K', 'P', 'T', '1'}
	descriptorMagic = [4]byte{'D', 'S', 'C', '1'}
)

// WriteKeypoints stores: "KPT1", count(uint32), then x, y, size, response
// as float32 per keypoint. All values are little-endian.
func WriteKeypoints(w io.Writer, kps []keypoints.Keypoint) error {
	out := make([]byte, 0, 8+16*len(kps))
	out = append(out, keypointMagic[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(kps)))
	for _, kp := range kps {
		for _, v := range [4]float64{kp.X, kp.Y, kp.Size, kp.Response} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		}
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write keypoints: %w", err)
	}
	return nil
}

// ReadKeypoints restores keypoints written by WriteKeypoints.
func ReadKeypoints(r io.Reader) ([]keypoints.Keypoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypoints: %w", err)
	}
	if len(data) < 8 || !bytes.Equal(data[:4], keypointMagic[:]) {
		return nil, fmt.Errorf("%w: not a keypoint blob", ErrCorruptBlob)
	}
	n := uint64(binary.LittleEndian.Uint32(data[4:8]))
	if uint64(len(data)-8) != n*16 {
		return nil, fmt.Errorf("%w: %d keypoints need %d bytes, have %d", ErrCorruptBlob, n, n*16, len(data)-8)
	}

	off := 8
	getF32 := func() float64 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		return float64(v)
	}
	kps := make([]keypoints.Keypoint, n)
	for i := range kps {
		kps[i] = keypoints.Keypoint{X: getF32(), Y: getF32(), Size: getF32(), Response: getF32()}
		for _, v := range [4]float64{kps[i].X, kps[i].Y, kps[i].Size, kps[i].Response} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: keypoint %d has non-finite value %v", ErrCorruptBlob, i, v)
			}
		}
	}
	return kps, nil
}

// WriteDescriptors stores: "DSC1", kind(uint8), rows(uint32), cols(uint32),
// then the row-major payload (bytes, or little-endian float32).
func WriteDescriptors(w io.Writer, d *Descriptors) error {
	rows, cols := d.Len(), d.Dim()
	elem := 1
	if d.Kind == KindFloat {
		elem = 4
	} else if d.Kind != KindBinary {
		return fmt.Errorf("cannot write descriptors of %s", d.Kind)
	}

	out := make([]byte, 0, 13+rows*cols*elem)
	out = append(out, descriptorMagic[:]...)
	out = append(out, byte(d.Kind))
	out = binary.LittleEndian.AppendUint32(out, uint32(rows))
	out = binary.LittleEndian.AppendUint32(out, uint32(cols))
	if d.Kind == KindBinary {
		for _, row := range d.Binary {
			out = append(out, row...)
		}
	} else {
		for _, row := range d.Float {
			for _, v := range row {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
			}
		}
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write descriptors: %w", err)
	}
	return nil
}

// ReadDescriptors restores descriptors written by WriteDescriptors.
func ReadDescriptors(r io.Reader) (*Descriptors, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors: %w", err)
	}
	if len(data) < 13 || !bytes.Equal(data[:4], descriptorMagic[:]) {
		return nil, fmt.Errorf("%w: not a descriptor blob", ErrCorruptBlob)
	}
	kind := Kind(data[4])
	rows := uint64(binary.LittleEndian.Uint32(data[5:9]))
	cols := uint64(binary.LittleEndian.Uint32(data[9:13]))
	payload := data[13:]
	if rows > 0 && cols == 0 {
		return nil, fmt.Errorf("%w: %d rows of zero length", ErrCorruptBlob, rows)
	}

	switch kind {
	case KindBinary:
		if uint64(len(payload)) != rows*cols {
			return nil, fmt.Errorf("%w: %dx%d binary descriptors need %d bytes, have %d", ErrCorruptBlob, rows, cols, rows*cols, len(payload))
		}
		out := make([][]byte, rows)
		for i := range out {
			out[i] = append([]byte(nil), payload[uint64(i)*cols:uint64(i+1)*cols]...)
		}
		return &Descriptors{Kind: KindBinary, Binary: out}, nil

	case KindFloat:
		if uint64(len(payload)) != rows*cols*4 {
			return nil, fmt.Errorf("%w: %dx%d float descriptors need %d bytes, have %d", ErrCorruptBlob, rows, cols, rows*cols*4, len(payload))
		}
		out := make([][]float32, rows)
		off := 0
		for i := range out {
			row := make([]float32, cols)
			for j := range row {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
				off += 4
			}
			out[i] = row
		}
		if err := checkFinite(out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlob, err)
		}
		return &Descriptors{Kind: KindFloat, Float: out}, nil

	default:
		return nil, fmt.Errorf("%w: unknown descriptor kind %d", ErrCorruptBlob, data[4])
	}
}

// LoadKeypointsFile reads a keypoint blob from disk.
func LoadKeypointsFile(path string) ([]keypoints.Keypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keypoints: %w", err)
	}
	defer f.Close()

	kps, err := ReadKeypoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kps, nil
}

// LoadDescriptorsFile reads a descriptor blob from disk.
func LoadDescriptorsFile(path string) (*Descriptors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open descriptors: %w", err)
	}
	defer f.Close()

	d, err := ReadDescriptors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
