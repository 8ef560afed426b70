package toolbox

import "github.com/pkg/errors"

// Sentinel errors.  Call sites wrap these with errors.Wrapf, so match them with
// errors.Is.
var (
	// ErrShapeMismatch is returned when an input, target or gradient vector
	// does not have the length the layer or network expects.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidTopology is returned when consecutive layers do not chain
	// (outputSize of one != inputSize of the next) or a size is not positive.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrUnknownActivation is returned when parsing an activation name.
	ErrUnknownActivation = errors.New("unknown activation")

	// ErrNoForward is returned by Layer.Backward when no Forward call preceded it.
	ErrNoForward = errors.New("backward called without a matching forward")

	ErrInvalidGraph   = errors.New("invalid computation graph")
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidConfig is returned for out-of-range training parameters.
	ErrInvalidConfig = errors.New("invalid training configuration")
)
