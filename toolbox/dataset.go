package toolbox

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npz"
)

// Sample is one (input, target) training pair.
type Sample struct {
	X []float32
	Y []float32
}

// XORSamples returns the four-sample logical XOR training set over {0,1}x{0,1}.
func XORSamples() []Sample {
	return []Sample{
		{X: []float32{0, 0}, Y: []float32{0}},
		{X: []float32{0, 1}, Y: []float32{1}},
		{X: []float32{1, 0}, Y: []float32{1}},
		{X: []float32{1, 1}, Y: []float32{0}},
	}
}

// CheckSamples verifies that every sample matches the given input and output
// sizes.
func CheckSamples(samples []Sample, inputSize, outputSize int) error {
	for k, s := range samples {
		if len(s.X) != inputSize {
			return errors.Wrapf(ErrShapeMismatch, "sample %d has %d inputs, want %d", k, len(s.X), inputSize)
		}
		if len(s.Y) != outputSize {
			return errors.Wrapf(ErrShapeMismatch, "sample %d has %d targets, want %d", k, len(s.Y), outputSize)
		}
	}
	return nil
}

// LoadNPZ reads a training set from a numpy .npz archive holding an array "x"
// of shape (samples, inputs) and an array "y" of shape (samples, outputs).
// 1-D arrays are read as a single column.
func LoadNPZ(path string) ([]Sample, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening dataset file: %w", err)
	}
	defer r.Close()

	x, xCols, err := loadMatrix(r, "x.npy")
	if err != nil {
		return nil, fmt.Errorf("while reading x.npy: %w", err)
	}
	y, yCols, err := loadMatrix(r, "y.npy")
	if err != nil {
		return nil, fmt.Errorf("while reading y.npy: %w", err)
	}

	rows := len(x) / xCols
	if len(y)/yCols != rows {
		return nil, errors.Wrapf(ErrInvalidDataset, "x has %d rows but y has %d", rows, len(y)/yCols)
	}

	samples := make([]Sample, rows)
	for k := 0; k < rows; k++ {
		samples[k] = Sample{
			X: x[k*xCols : (k+1)*xCols : (k+1)*xCols],
			Y: y[k*yCols : (k+1)*yCols : (k+1)*yCols],
		}
	}
	return samples, nil
}

// loadMatrix reads a 1-D or 2-D numeric array as row-major float32 values,
// returning the values and the number of columns.
func loadMatrix(r *npz.Reader, name string) ([]float32, int, error) {
	if !slices.Contains(r.Keys(), name) {
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "no array named %s", name)
	}
	header := r.Header(name)
	if header == nil {
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "no array named %s", name)
	}

	shape := header.Descr.Shape
	var cols int
	switch len(shape) {
	case 1:
		cols = 1
	case 2:
		cols = shape[1]
	default:
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "%s has shape %v, want 1 or 2 dimensions", name, shape)
	}
	if shape[0] == 0 || cols == 0 {
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "%s is empty", name)
	}
	if header.Descr.Fortran && len(shape) == 2 && cols > 1 {
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "%s uses Fortran order", name)
	}

	var values []float32
	switch header.Descr.Type {
	case "<f4":
		if err := r.Read(name, &values); err != nil {
			return nil, 0, fmt.Errorf("while reading float32 array: %w", err)
		}
	case "<f8":
		var raw []float64
		if err := r.Read(name, &raw); err != nil {
			return nil, 0, fmt.Errorf("while reading float64 array: %w", err)
		}
		values = make([]float32, len(raw))
		for i, v := range raw {
			values[i] = float32(v)
		}
	case "|u1":
		var raw []uint8
		if err := r.Read(name, &raw); err != nil {
			return nil, 0, fmt.Errorf("while reading uint8 array: %w", err)
		}
		values = make([]float32, len(raw))
		for i, v := range raw {
			values[i] = float32(v)
		}
	case "<i8":
		var raw []int64
		if err := r.Read(name, &raw); err != nil {
			return nil, 0, fmt.Errorf("while reading int64 array: %w", err)
		}
		values = make([]float32, len(raw))
		for i, v := range raw {
			values[i] = float32(v)
		}
	default:
		return nil, 0, errors.Wrapf(ErrInvalidDataset, "%s has unsupported dtype %s", name, header.Descr.Type)
	}

	return values, cols, nil
}
