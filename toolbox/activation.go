package toolbox

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type ActivationType int

const (
	Sigmoid ActivationType = iota
	ReLU
	Tanh
	Linear
)

var activationNames = []string{
	Sigmoid: "sigmoid",
	ReLU:    "relu",
	Tanh:    "tanh",
	Linear:  "linear",
}

func (a ActivationType) String() string {
	if a < 0 || int(a) >= len(activationNames) {
		return "ActivationType(" + strconv.Itoa(int(a)) + ")"
	}
	return activationNames[a]
}

// ParseActivation maps a case-insensitive name to its ActivationType.
func ParseActivation(name string) (ActivationType, error) {
	for i, n := range activationNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return ActivationType(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownActivation, "%q (want one of %s)", name, strings.Join(activationNames, ", "))
}

func (a ActivationType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ActivationType) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Activate applies the activation function to the linear output z.
func Activate(kind ActivationType, z float32) float32 {
	switch kind {
	case Sigmoid:
		return 1 / (1 + math32.Exp(-z))
	case ReLU:
		return math32.Max(0, z)
	case Tanh:
		return math32.Tanh(z)
	case Linear:
		return z
	default:
		panic("unhandled activation function")
	}
}

// Derivative computes da/dz from the activated value a = Activate(kind, z).
// Sigmoid and tanh recover the derivative from their output; ReLU treats a == 0
// as the inactive side.
func Derivative(kind ActivationType, a float32) float32 {
	switch kind {
	case Sigmoid:
		return a * (1 - a)
	case ReLU:
		if a > 0 {
			return 1
		}
		return 0
	case Tanh:
		return 1 - a*a
	case Linear:
		return 1
	default:
		panic("unhandled activation function")
	}
}

// DerivativeAt computes da/dz from the pre-activation value z.
func DerivativeAt(kind ActivationType, z float32) float32 {
	switch kind {
	case Sigmoid, Tanh:
		return Derivative(kind, Activate(kind, z))
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Linear:
		return 1
	default:
		panic("unhandled activation function")
	}
}
