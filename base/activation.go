package base

import (
	"strings"

	"github.com/pkg/errors"
	ts "github.com/sugarme/gotch/tensor"
)

// Activation is an activation applied after a convolution.
type Activation int

const (
	ActNone Activation = iota
	ActReLU
	ActLeakyReLU
)

// DefaultLeakySlope is the Keras LeakyReLU default alpha.
const DefaultLeakySlope = 0.3

func (a Activation) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActReLU:
		return "relu"
	case ActLeakyReLU:
		return "leaky_relu"
	}
	return "unknown"
}

// ParseActivation parses "none", "relu" or "leaky_relu".
func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(s) {
	case "none", "linear", "":
		return ActNone, nil
	case "relu":
		return ActReLU, nil
	case "leaky_relu", "leakyrelu", "leaky":
		return ActLeakyReLU, nil
	}
	return ActNone, errors.Errorf("unknown activation %q", s)
}

// Func returns the tensor function for the activation, nil for ActNone.
// The input tensor is not deleted.
func (a Activation) Func(slope float64) func(*ts.Tensor) *ts.Tensor {
	switch a {
	case ActReLU:
		return func(xs *ts.Tensor) *ts.Tensor { return xs.MustRelu(false) }
	case ActLeakyReLU:
		return func(xs *ts.Tensor) *ts.Tensor { return LeakyRelu(xs, slope) }
	}
	return nil
}

// PadMode selects how borders are filled before a valid convolution.
type PadMode int

const (
	// PadSymmetric mirrors border content including the edge pixel.
	PadSymmetric PadMode = iota
	// PadReflect mirrors border content excluding the edge pixel.
	PadReflect
	// PadZero fills with zeros.
	PadZero
)

func (m PadMode) String() string {
	switch m {
	case PadSymmetric:
		return "symmetric"
	case PadReflect:
		return "reflect"
	case PadZero:
		return "zero"
	}
	return "unknown"
}

// ParsePadMode parses "symmetric", "reflect" or "zero".
func ParsePadMode(s string) (PadMode, error) {
	switch strings.ToLower(s) {
	case "symmetric", "":
		return PadSymmetric, nil
	case "reflect":
		return PadReflect, nil
	case "zero", "constant":
		return PadZero, nil
	}
	return PadSymmetric, errors.Errorf("unknown pad mode %q", s)
}
