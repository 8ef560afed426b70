package toolbox

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LayerSpec declares one dense layer of a network.
type LayerSpec struct {
	InputSize  int            `yaml:"in"`
	OutputSize int            `yaml:"out"`
	Activation ActivationType `yaml:"activation"`
}

func (s LayerSpec) String() string {
	return strconv.Itoa(s.InputSize) + ":" + strconv.Itoa(s.OutputSize) + ":" + s.Activation.String()
}

// ParseTopology parses a comma-separated list of in:out:activation triples,
// e.g. "2:4:sigmoid,4:3:sigmoid,3:1:sigmoid".  The result is validated with
// ValidateTopology.
func ParseTopology(text string) ([]LayerSpec, error) {
	var specs []LayerSpec
	for i, field := range strings.Split(text, ",") {
		parts := strings.Split(strings.TrimSpace(field), ":")
		if len(parts) != 3 {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d: %q is not in:out:activation", i, field)
		}

		in, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d: bad input size %q", i, parts[0])
		}
		out, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d: bad output size %q", i, parts[1])
		}
		act, err := ParseActivation(parts[2])
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}

		specs = append(specs, LayerSpec{InputSize: in, OutputSize: out, Activation: act})
	}

	if err := ValidateTopology(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// FormatTopology is the inverse of ParseTopology.
func FormatTopology(specs []LayerSpec) string {
	fields := make([]string, len(specs))
	for i, s := range specs {
		fields[i] = s.String()
	}
	return strings.Join(fields, ",")
}

// ValidateTopology checks that there is at least one layer, every size is
// positive, and consecutive layers chain.
func ValidateTopology(specs []LayerSpec) error {
	if len(specs) == 0 {
		return errors.Wrap(ErrInvalidTopology, "no layers")
	}
	for i, s := range specs {
		if s.InputSize < 1 || s.OutputSize < 1 {
			return errors.Wrapf(ErrInvalidTopology, "layer %d: sizes must be >= 1, got %d -> %d", i, s.InputSize, s.OutputSize)
		}
		if s.Activation < Sigmoid || s.Activation > Linear {
			return errors.Wrapf(ErrUnknownActivation, "layer %d: %v", i, s.Activation)
		}
		if i > 0 && specs[i-1].OutputSize != s.InputSize {
			return errors.Wrapf(ErrInvalidTopology, "layer %d takes %d inputs but layer %d produces %d", i, s.InputSize, i-1, specs[i-1].OutputSize)
		}
	}
	return nil
}
