package toolbox

import (
	"fmt"
)

// AF32 is a dense row-major float32 array.  Layers store their weights (shape
// {OutputSize, InputSize}) and biases (shape {OutputSize}) in it.
type AF32 struct {
	V     []float32
	Shape []int
}

func MakeAF32(shape ...int) *AF32 {
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
	}
	size := 1
	for _, s := range shape {
		size *= s
	}

	return &AF32{
		V:     make([]float32, size),
		Shape: shape,
	}
}

// AF32Copy returns a deep copy of in.
func AF32Copy(in *AF32) *AF32 {
	out := &AF32{
		V:     make([]float32, len(in.V)),
		Shape: make([]int, len(in.Shape)),
	}
	copy(out.V, in.V)
	copy(out.Shape, in.Shape)
	return out
}

func (a *AF32) At1(idx int) float32 {
	return a.V[idx]
}

func (a *AF32) At2(idx0, idx1 int) float32 {
	if len(a.Shape) != 2 {
		panic("At2() invalid for len(shape) != 2")
	}
	return a.V[idx0*a.Shape[1]+idx1]
}

func (a *AF32) Set1(idx int, v float32) {
	a.V[idx] = v
}

func (a *AF32) Set2(idx0, idx1 int, v float32) {
	if len(a.Shape) != 2 {
		panic("Set2() invalid for len(shape) != 2")
	}
	a.V[idx0*a.Shape[1]+idx1] = v
}

// Row returns row idx0 of a 2-D array.  The slice shares storage with a.
func (a *AF32) Row(idx0 int) []float32 {
	if len(a.Shape) != 2 {
		panic("Row() invalid for len(shape) != 2")
	}
	return a.V[idx0*a.Shape[1] : (idx0+1)*a.Shape[1]]
}

func denseDot2(x []float32, y []float32) float32 {
	if len(x) != len(y) {
		panic("mismatched length")
	}
	var sum float32
	for i := range len(x) {
		sum += x[i] * y[i]
	}
	return sum
}
