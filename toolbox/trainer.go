package toolbox

import (
	"time"

	"github.com/pkg/errors"
)

// EpochReport summarizes one training epoch.
type EpochReport struct {
	Epoch int

	// Loss is the mean over all samples of the loss measured right after
	// training on that sample.
	Loss float32

	// Elapsed is the wall time since the start of Run.
	Elapsed time.Duration
}

// Trainer runs per-sample gradient descent over a fixed training set.
type Trainer struct {
	Network      *Network
	Samples      []Sample
	Epochs       int
	LearningRate float32

	// ReportEvery calls Report every ReportEvery epochs, plus once for the
	// final epoch.  Zero only reports the final epoch.
	ReportEvery int
	Report      func(EpochReport)
}

func (t *Trainer) validate() error {
	if t.Network == nil {
		return errors.Wrap(ErrInvalidConfig, "no network")
	}
	if t.Epochs < 0 {
		return errors.Wrapf(ErrInvalidConfig, "epochs must be >= 0, got %d", t.Epochs)
	}
	if !(t.LearningRate > 0) {
		return errors.Wrapf(ErrInvalidConfig, "learning rate must be > 0, got %v", t.LearningRate)
	}
	if t.ReportEvery < 0 {
		return errors.Wrapf(ErrInvalidConfig, "report interval must be >= 0, got %d", t.ReportEvery)
	}
	if len(t.Samples) == 0 {
		return errors.Wrap(ErrInvalidDataset, "no samples")
	}
	in, out := t.Network.Dims()
	return CheckSamples(t.Samples, in, out)
}

// Run trains for t.Epochs epochs and returns the mean loss of the last one.
// With zero epochs it returns the mean loss of the untrained network.
func (t *Trainer) Run() (float32, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}

	if t.Epochs == 0 {
		_, loss, err := Evaluate(t.Network, t.Samples)
		return loss, err
	}

	start := time.Now()
	var meanLoss float32
	for epoch := 0; epoch < t.Epochs; epoch++ {
		var totalLoss float32
		for k, s := range t.Samples {
			if err := t.Network.Train(s.X, s.Y, t.LearningRate); err != nil {
				return 0, errors.Wrapf(err, "epoch %d sample %d", epoch, k)
			}

			pred, err := t.Network.Predict(s.X)
			if err != nil {
				return 0, errors.Wrapf(err, "epoch %d sample %d", epoch, k)
			}
			loss, err := t.Network.ComputeLoss(pred, s.Y)
			if err != nil {
				return 0, errors.Wrapf(err, "epoch %d sample %d", epoch, k)
			}
			totalLoss += loss
		}
		meanLoss = totalLoss / float32(len(t.Samples))

		last := epoch == t.Epochs-1
		periodic := t.ReportEvery > 0 && epoch%t.ReportEvery == 0
		if t.Report != nil && (last || periodic) {
			t.Report(EpochReport{Epoch: epoch, Loss: meanLoss, Elapsed: time.Since(start)})
		}
	}

	return meanLoss, nil
}

// Prediction pairs a network output with its sample.
type Prediction struct {
	Input     []float32
	Predicted []float32
	Target    []float32
}

// Evaluate runs every sample through net.Predict and returns the predictions
// with the mean loss over all samples.
func Evaluate(net *Network, samples []Sample) ([]Prediction, float32, error) {
	if len(samples) == 0 {
		return nil, 0, errors.Wrap(ErrInvalidDataset, "no samples")
	}

	preds := make([]Prediction, len(samples))
	var totalLoss float32
	for k, s := range samples {
		a, err := net.Predict(s.X)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "sample %d", k)
		}
		loss, err := net.ComputeLoss(a, s.Y)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "sample %d", k)
		}
		totalLoss += loss
		preds[k] = Prediction{Input: s.X, Predicted: a, Target: s.Y}
	}
	return preds, totalLoss / float32(len(samples)), nil
}
