package toolbox

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/pkg/errors"
)

// Network is an ordered composition of modules.  Modules[0] receives the
// network input; the output of Modules[i] feeds Modules[i+1].
type Network struct {
	Modules []Module
}

// NewNetwork builds a network of dense layers, one per spec, in order.
// Weights are drawn from N(0, stddev^2) using r.
func NewNetwork(specs []LayerSpec, r *rand.Rand, stddev float32, propagation PropagationOrder) (*Network, error) {
	if err := ValidateTopology(specs); err != nil {
		return nil, err
	}

	net := &Network{}
	for _, s := range specs {
		lay := MakeDense(s.Activation, s.InputSize, s.OutputSize, r, stddev)
		lay.Propagation = propagation
		net.Modules = append(net.Modules, lay)
	}
	return net, nil
}

// Append adds m after the current last module.  The input size of m must
// match the output size of the last module.
func (net *Network) Append(m Module) error {
	in, out := m.Dims()
	if in < 1 || out < 1 {
		return errors.Wrapf(ErrInvalidTopology, "module %d has dims %d -> %d", len(net.Modules), in, out)
	}
	if len(net.Modules) > 0 {
		_, prevOut := net.Modules[len(net.Modules)-1].Dims()
		if prevOut != in {
			return errors.Wrapf(ErrInvalidTopology, "module %d takes %d inputs but module %d produces %d", len(net.Modules), in, len(net.Modules)-1, prevOut)
		}
	}
	net.Modules = append(net.Modules, m)
	return nil
}

// Dims returns the input size of the first module and the output size of the
// last one.
func (net *Network) Dims() (inputSize, outputSize int) {
	if len(net.Modules) == 0 {
		return 0, 0
	}
	inputSize, _ = net.Modules[0].Dims()
	_, outputSize = net.Modules[len(net.Modules)-1].Dims()
	return inputSize, outputSize
}

// Layers returns the modules that are dense layers, in order.
func (net *Network) Layers() []*Layer {
	var layers []*Layer
	for _, m := range net.Modules {
		if lay, ok := m.(*Layer); ok {
			layers = append(layers, lay)
		}
	}
	return layers
}

// Predict runs x forward through every module.
func (net *Network) Predict(x []float32) ([]float32, error) {
	if len(net.Modules) == 0 {
		return nil, errors.Wrap(ErrInvalidTopology, "network has no layers")
	}

	a := x
	for l, m := range net.Modules {
		var err error
		a, err = m.Forward(a)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d forward", l)
		}
	}
	return a, nil
}

// Train runs one gradient descent step on a single sample (x, y) with the mean
// squared error loss.
func (net *Network) Train(x, y []float32, learningRate float32) error {
	_, outputSize := net.Dims()
	if len(y) != outputSize {
		return errors.Wrapf(ErrShapeMismatch, "target has length %d, want %d", len(y), outputSize)
	}

	a, err := net.Predict(x)
	if err != nil {
		return err
	}

	djda := make([]float32, len(a))
	MeanSquaredErrorLossGradient(y, a, djda)

	// Backprop.  djdx of module l is the djda of module l-1.
	for l := len(net.Modules) - 1; l >= 0; l-- {
		djda, err = net.Modules[l].Backward(djda, learningRate)
		if err != nil {
			return errors.Wrapf(err, "layer %d backward", l)
		}
	}
	return nil
}

// ComputeLoss returns the mean squared error between predicted and target.
func (net *Network) ComputeLoss(predicted, target []float32) (float32, error) {
	if len(predicted) != len(target) {
		return 0, errors.Wrapf(ErrShapeMismatch, "predicted has length %d but target has length %d", len(predicted), len(target))
	}
	if len(predicted) == 0 {
		return 0, errors.Wrap(ErrShapeMismatch, "empty prediction")
	}
	return MeanSquaredErrorLoss(target, predicted), nil
}

// WriteArchitecture prints every dense layer's weights.
func (net *Network) WriteArchitecture(w io.Writer) error {
	for l, lay := range net.Layers() {
		if _, err := fmt.Fprintf(w, "Layer %d: ", l+1); err != nil {
			return err
		}
		if err := lay.WriteWeights(w); err != nil {
			return fmt.Errorf("while writing layer %d: %w", l+1, err)
		}
	}
	return nil
}
