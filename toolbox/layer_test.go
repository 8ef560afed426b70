package toolbox

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

// makeLayer returns a layer with the given weights (row-major) and biases.
func makeLayer(activation ActivationType, inputSize, outputSize int, w, b []float32) *Layer {
	lay := &Layer{
		Activation: activation,
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          MakeAF32(outputSize, inputSize),
		B:          MakeAF32(outputSize),
	}
	copy(lay.W.V, w)
	copy(lay.B.V, b)
	return lay
}

func TestMakeDense(t *testing.T) {
	a := MakeDense(Sigmoid, 3, 2, rand.New(rand.NewSource(12345)), 0.1)
	b := MakeDense(Sigmoid, 3, 2, rand.New(rand.NewSource(12345)), 0.1)

	assert.Equal(t, []int{2, 3}, a.W.Shape)
	assert.Equal(t, []int{2}, a.B.Shape)
	if diff := cmp.Diff(a.W.V, b.W.V); diff != "" {
		t.Errorf("Same seed gave different weights; diff (-a +b)\n%s", diff)
	}

	for _, v := range append(append([]float32{}, a.W.V...), a.B.V...) {
		if v == 0 || v > 1 || v < -1 {
			t.Errorf("Initial parameter %v is not a small nonzero value", v)
		}
	}
}

func TestLayerForward(t *testing.T) {
	lay := makeLayer(Linear, 2, 2, []float32{1, 2, -1, 0.5}, []float32{0.5, -1})

	got, err := lay.Forward([]float32{3, 4})
	require.NoError(t, err)
	if diff := cmp.Diff(got, []float32{11.5, -2}, approx); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}

	lay.Activation = ReLU
	got, err = lay.Forward([]float32{3, 4})
	require.NoError(t, err)
	if diff := cmp.Diff(got, []float32{11.5, 0}, approx); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}

	lay.Activation = Sigmoid
	got, err = lay.Forward([]float32{0, 0})
	require.NoError(t, err)
	if diff := cmp.Diff(got, []float32{Activate(Sigmoid, 0.5), Activate(Sigmoid, -1)}, approx); diff != "" {
		t.Errorf("Wrong output; diff (-got +want)\n%s", diff)
	}
}

func TestLayerShapeMismatch(t *testing.T) {
	lay := makeLayer(Linear, 2, 1, []float32{1, 1}, []float32{0})

	_, err := lay.Forward([]float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = lay.Forward([]float32{1, 2})
	require.NoError(t, err)
	_, err = lay.Backward([]float32{1, 1}, 0.1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLayerBackwardNeedsForward(t *testing.T) {
	lay := makeLayer(Linear, 2, 1, []float32{1, 1}, []float32{0})

	_, err := lay.Backward([]float32{1}, 0.1)
	assert.ErrorIs(t, err, ErrNoForward)

	_, err = lay.Forward([]float32{1, 2})
	require.NoError(t, err)
	_, err = lay.Backward([]float32{1}, 0.1)
	require.NoError(t, err)

	_, err = lay.Backward([]float32{1}, 0.1)
	assert.ErrorIs(t, err, ErrNoForward)
}

func TestLayerBackward(t *testing.T) {
	testCases := []struct {
		name        string
		propagation PropagationOrder
		wantDjdx    []float32
	}{
		{
			name:        "updated weights",
			propagation: PropagateUpdated,
			wantDjdx:    []float32{0.4, -1.2},
		},
		{
			name:        "original weights",
			propagation: PropagateOriginal,
			wantDjdx:    []float32{0.5, -1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lay := makeLayer(Linear, 2, 1, []float32{0.5, -1}, []float32{0.1})
			lay.Propagation = tc.propagation

			_, err := lay.Forward([]float32{1, 2})
			require.NoError(t, err)

			djdx, err := lay.Backward([]float32{1}, 0.1)
			require.NoError(t, err)

			if diff := cmp.Diff(djdx, tc.wantDjdx, approx); diff != "" {
				t.Errorf("Wrong djdx; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(lay.W.V, []float32{0.4, -1.2}, approx); diff != "" {
				t.Errorf("Wrong updated weights; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(lay.B.V, []float32{0}, approx); diff != "" {
				t.Errorf("Wrong updated biases; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(lay.WeightGradients().V, []float32{1, 2}, approx); diff != "" {
				t.Errorf("Wrong weight gradients; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(lay.BiasGradients(), []float32{1}, approx); diff != "" {
				t.Errorf("Wrong bias gradients; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestLayerBackwardUsesActivatedOutput(t *testing.T) {
	// With zero weights the sigmoid output is sigmoid(b), and the local
	// gradient is a*(1-a).
	lay := makeLayer(Sigmoid, 1, 1, []float32{0}, []float32{0.3})

	a, err := lay.Forward([]float32{2})
	require.NoError(t, err)

	_, err = lay.Backward([]float32{1}, 0)
	require.NoError(t, err)

	want := a[0] * (1 - a[0])
	assert.InDelta(t, want, lay.BiasGradients()[0], 1e-6)
	assert.InDelta(t, 2*want, lay.WeightGradients().At2(0, 0), 1e-6)
}

func TestForwardCopiesOutput(t *testing.T) {
	lay := makeLayer(Linear, 1, 1, []float32{2}, []float32{0})

	x := []float32{3}
	a, err := lay.Forward(x)
	require.NoError(t, err)

	// Mutating the caller's slices must not change what Backward sees.
	x[0] = 100
	a[0] = 100

	_, err = lay.Backward([]float32{1}, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 3, lay.WeightGradients().At2(0, 0), 1e-6)
}
