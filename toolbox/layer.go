package toolbox

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
)

// PropagationOrder selects which weights Layer.Backward uses to propagate the
// gradient to the layer input.
type PropagationOrder int

const (
	// PropagateUpdated computes the input gradient against each weight after
	// it has been decremented in the same pass.  This is the behavior the
	// reference trainer has, and it is the default.
	PropagateUpdated PropagationOrder = iota

	// PropagateOriginal computes the input gradient against the weights that
	// were used in the forward pass (textbook backpropagation).
	PropagateOriginal
)

func (p PropagationOrder) String() string {
	switch p {
	case PropagateUpdated:
		return "updated"
	case PropagateOriginal:
		return "original"
	default:
		return fmt.Sprintf("PropagationOrder(%d)", int(p))
	}
}

// Module is one stage of a Network.  *Layer is the only production
// implementation.
type Module interface {
	// Dims returns the input and output vector lengths.
	Dims() (inputSize, outputSize int)

	// Forward computes the stage output and captures whatever Backward needs.
	Forward(x []float32) ([]float32, error)

	// Backward consumes the state captured by the preceding Forward, applies
	// a gradient descent step and returns the gradient of the loss wrt the
	// stage input.
	Backward(djda []float32, learningRate float32) ([]float32, error)
}

type Layer struct {
	Activation  ActivationType
	Propagation PropagationOrder

	W *AF32 // Shape (OutputSize, InputSize)
	B *AF32 // Shape (OutputSize)

	InputSize  int
	OutputSize int

	// Captured by Forward, consumed by Backward.
	x []float32
	a []float32

	// Gradients from the most recent Backward.
	djdw *AF32
	djdb []float32
}

var _ Module = (*Layer)(nil)

// MakeDense creates a fully-connected layer with weights and biases drawn from
// N(0, stddev^2).
func MakeDense(activation ActivationType, inputSize, outputSize int, r *rand.Rand, stddev float32) *Layer {
	l := &Layer{
		Activation: activation,
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          MakeAF32(outputSize, inputSize),
		B:          MakeAF32(outputSize),
	}

	for i := 0; i < outputSize; i++ {
		for j := 0; j < inputSize; j++ {
			l.W.Set2(i, j, float32(r.NormFloat64())*stddev)
		}
		l.B.Set1(i, float32(r.NormFloat64())*stddev)
	}

	return l
}

func (lay *Layer) Dims() (int, int) {
	return lay.InputSize, lay.OutputSize
}

// Forward applies the layer to a single sample.
//
// x (input) is the layer input.  Length lay.InputSize
//
// Returns the activated output.  Length lay.OutputSize
func (lay *Layer) Forward(x []float32) ([]float32, error) {
	if len(x) != lay.InputSize {
		return nil, errors.Wrapf(ErrShapeMismatch, "layer input has length %d, want %d", len(x), lay.InputSize)
	}

	if lay.x == nil {
		lay.x = make([]float32, lay.InputSize)
		lay.a = make([]float32, lay.OutputSize)
	}
	lay.x = lay.x[:lay.InputSize]
	copy(lay.x, x)

	for i := 0; i < lay.OutputSize; i++ {
		z := lay.B.At1(i) + denseDot2(lay.W.Row(i), x)
		lay.a[i] = Activate(lay.Activation, z)
	}

	out := make([]float32, lay.OutputSize)
	copy(out, lay.a)
	return out, nil
}

// Backward runs one gradient descent step on the layer.
//
// djda (input) is the gradient of the loss wrt the layer output.  Length lay.OutputSize
//
// Returns djdx, the gradient of the loss wrt the layer input.  Length lay.InputSize
func (lay *Layer) Backward(djda []float32, learningRate float32) ([]float32, error) {
	if len(djda) != lay.OutputSize {
		return nil, errors.Wrapf(ErrShapeMismatch, "layer output gradient has length %d, want %d", len(djda), lay.OutputSize)
	}
	if len(lay.x) == 0 {
		return nil, ErrNoForward
	}

	if lay.djdw == nil {
		lay.djdw = MakeAF32(lay.OutputSize, lay.InputSize)
		lay.djdb = make([]float32, lay.OutputSize)
	}

	djdx := make([]float32, lay.InputSize)
	for i := 0; i < lay.OutputSize; i++ {
		djdz := djda[i] * Derivative(lay.Activation, lay.a[i])

		lay.djdb[i] = djdz
		lay.B.Set1(i, lay.B.At1(i)-learningRate*djdz)

		w := lay.W.Row(i)
		for j := 0; j < lay.InputSize; j++ {
			grad := djdz * lay.x[j]
			lay.djdw.Set2(i, j, grad)

			old := w[j]
			w[j] -= learningRate * grad
			switch lay.Propagation {
			case PropagateOriginal:
				djdx[j] += djdz * old
			default:
				djdx[j] += djdz * w[j]
			}
		}
	}

	// The captured input is consumed; a second Backward needs a new Forward.
	lay.x = lay.x[:0]

	return djdx, nil
}

// BiasGradients returns the bias gradients from the most recent Backward, or
// nil if Backward has not run.
func (lay *Layer) BiasGradients() []float32 {
	return lay.djdb
}

// WeightGradients returns the weight gradients from the most recent Backward,
// shape (OutputSize, InputSize), or nil if Backward has not run.
func (lay *Layer) WeightGradients() *AF32 {
	return lay.djdw
}

// WriteWeights prints the weight matrix, one row per output unit.
func (lay *Layer) WriteWeights(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s layer %d -> %d\n", lay.Activation, lay.InputSize, lay.OutputSize); err != nil {
		return err
	}
	for i := 0; i < lay.OutputSize; i++ {
		row := make([]string, lay.InputSize)
		for j, v := range lay.W.Row(i) {
			row[j] = fmt.Sprintf("%.4f", v)
		}
		if _, err := fmt.Fprintf(w, "  w=[%s] b=%.4f\n", strings.Join(row, " "), lay.B.At1(i)); err != nil {
			return err
		}
	}
	return nil
}
