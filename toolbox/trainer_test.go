package toolbox

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainXOR trains a 2->4->3->1 sigmoid network on XOR, trying successive seeds
// because a small fraction of initializations settle in a local minimum.
func trainXOR(t *testing.T, propagation PropagationOrder, epochs int) (*Network, float32) {
	t.Helper()

	var net *Network
	var loss float32
	for seed := int64(1); seed <= 10; seed++ {
		net = must.M1(NewNetwork(xorTopology, rand.New(rand.NewSource(seed)), 1.0, propagation))
		trainer := &Trainer{
			Network:      net,
			Samples:      XORSamples(),
			Epochs:       epochs,
			LearningRate: 0.5,
		}
		var err error
		loss, err = trainer.Run()
		require.NoError(t, err)
		if loss < 0.05 {
			return net, loss
		}
		t.Logf("seed=%d loss=%f, trying the next seed", seed, loss)
	}
	return net, loss
}

func TestXORConverges(t *testing.T) {
	for _, propagation := range []PropagationOrder{PropagateUpdated, PropagateOriginal} {
		t.Run(propagation.String(), func(t *testing.T) {
			net, loss := trainXOR(t, propagation, 10000)
			if loss >= 0.05 {
				t.Fatalf("Mean loss after training is %v, want < 0.05", loss)
			}

			preds, evalLoss, err := Evaluate(net, XORSamples())
			require.NoError(t, err)
			assert.Less(t, evalLoss, float32(0.05))
			for _, p := range preds {
				if math32.Abs(p.Predicted[0]-p.Target[0]) > 0.2 {
					t.Errorf("XOR(%v) = %v, want %v", p.Input, p.Predicted[0], p.Target[0])
				}
			}
		})
	}
}

func TestTrainerReports(t *testing.T) {
	net := must.M1(NewNetwork(xorTopology, rand.New(rand.NewSource(1)), 1.0, PropagateUpdated))

	var epochs []int
	var losses []float32
	trainer := &Trainer{
		Network:      net,
		Samples:      XORSamples(),
		Epochs:       25,
		LearningRate: 0.5,
		ReportEvery:  10,
		Report: func(r EpochReport) {
			epochs = append(epochs, r.Epoch)
			losses = append(losses, r.Loss)
		},
	}
	final, err := trainer.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 10, 20, 24}, epochs)
	assert.Equal(t, final, losses[len(losses)-1])
}

func TestTrainerZeroEpochs(t *testing.T) {
	net := must.M1(NewNetwork(xorTopology, rand.New(rand.NewSource(1)), 1.0, PropagateUpdated))
	before := AF32Copy(net.Layers()[0].W)

	trainer := &Trainer{Network: net, Samples: XORSamples(), LearningRate: 0.5}
	loss, err := trainer.Run()
	require.NoError(t, err)

	_, want, err := Evaluate(net, XORSamples())
	require.NoError(t, err)
	assert.Equal(t, want, loss)
	assert.Equal(t, before.V, net.Layers()[0].W.V)
}

func TestTrainerValidation(t *testing.T) {
	net := must.M1(NewNetwork(xorTopology, rand.New(rand.NewSource(1)), 1.0, PropagateUpdated))

	testCases := []struct {
		name    string
		trainer Trainer
		wantErr error
	}{
		{
			name:    "negative epochs",
			trainer: Trainer{Network: net, Samples: XORSamples(), Epochs: -1, LearningRate: 0.5},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero learning rate",
			trainer: Trainer{Network: net, Samples: XORSamples(), Epochs: 1},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "no samples",
			trainer: Trainer{Network: net, Epochs: 1, LearningRate: 0.5},
			wantErr: ErrInvalidDataset,
		},
		{
			name:    "wrong sample width",
			trainer: Trainer{Network: net, Samples: []Sample{{X: []float32{1}, Y: []float32{1}}}, Epochs: 1, LearningRate: 0.5},
			wantErr: ErrShapeMismatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.trainer.Run()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
