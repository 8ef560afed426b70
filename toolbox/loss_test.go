package toolbox

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMeanSquaredErrorLossGradient(t *testing.T) {
	y := []float32{1, 0, -1}
	a := []float32{2, 0, 1}

	djda := make([]float32, 3)
	MeanSquaredErrorLossGradient(y, a, djda)

	// 2*(a-y)/3
	if diff := cmp.Diff(djda, []float32{2.0 / 3, 0, 4.0 / 3}, approx); diff != "" {
		t.Errorf("Wrong gradient; diff (-got +want)\n%s", diff)
	}
	assert.InDelta(t, 5.0/3, MeanSquaredErrorLoss(y, a), 1e-6)

	assert.Panics(t, func() { MeanSquaredErrorLoss(y, a[:2]) })
	assert.Panics(t, func() { MeanSquaredErrorLossGradient(y, a, djda[:1]) })
}

func TestMeanSquaredErrorLossGradientMatchesNumerical(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	y := make([]float32, 4)
	a := make([]float32, 4)
	for i := range y {
		y[i] = r.Float32()
		a[i] = r.Float32()
	}

	djda := make([]float32, 4)
	MeanSquaredErrorLossGradient(y, a, djda)

	h := float32(1e-2)
	for i := range a {
		orig := a[i]
		a[i] = orig + h
		up := MeanSquaredErrorLoss(y, a)
		a[i] = orig - h
		down := MeanSquaredErrorLoss(y, a)
		a[i] = orig

		assert.InDelta(t, (up-down)/(2*h), djda[i], 1e-3, "element %d", i)
	}
}

func TestAF32(t *testing.T) {
	a := MakeAF32(2, 3)
	a.Set2(1, 2, 5)
	assert.Equal(t, float32(5), a.At1(5))
	assert.Equal(t, []float32{0, 0, 5}, a.Row(1))

	b := AF32Copy(a)
	b.Set2(1, 2, 6)
	assert.Equal(t, float32(5), a.At2(1, 2))
	assert.Equal(t, []int{2, 3}, b.Shape)

	assert.Panics(t, func() { MakeAF32(2, 0) })
	assert.Panics(t, func() { MakeAF32(4).At2(0, 0) })
}

func BenchmarkTrainStep(b *testing.B) {
	net, err := NewNetwork(xorTopology, rand.New(rand.NewSource(12345)), 1.0, PropagateUpdated)
	if err != nil {
		b.Fatal(err)
	}
	samples := XORSamples()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s := samples[i%len(samples)]
		if err := net.Train(s.X, s.Y, 0.5); err != nil {
			b.Fatal(err)
		}
	}
}
