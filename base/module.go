package base

import (
	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// Conv2d creates Conv2D module.
func Conv2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// BlockFn creates a single conv block mapping cIn to cOut channels
// without changing spatial size.
type BlockFn func(p *nn.Path, cIn, cOut int64) ts.ModuleT

// SameConvBlock returns a BlockFn of 3x3 same-padded conv followed by act.
// With ActNone the block is the bare conv.
func SameConvBlock(act Activation, slope float64) BlockFn {
	return func(p *nn.Path, cIn, cOut int64) ts.ModuleT {
		conv := Conv2d(p.Sub("conv"), cIn, cOut, 3, 1, 1)
		fn := act.Func(slope)
		if fn == nil {
			// NOTE. a single-layer SequentialT panics on ForwardT.
			return conv
		}

		seq := nn.SeqT()
		seq.Add(conv)
		seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
			return fn(xs)
		}))

		return seq
	}
}

// PadConvBlock returns a BlockFn padding 1 pixel with mode, then a valid
// 3x3 conv and a leaky ReLU.
func PadConvBlock(mode PadMode, slope float64) BlockFn {
	return func(p *nn.Path, cIn, cOut int64) ts.ModuleT {
		seq := nn.SeqT()
		seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
			return MustPad2d(xs, 1, mode)
		}))
		seq.Add(Conv2d(p.Sub("conv"), cIn, cOut, 3, 0, 1))
		seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
			return LeakyRelu(xs, slope)
		}))

		return seq
	}
}

// DoubleConv creates a SequentialT of two blocks: cIn => cOut => cOut.
func DoubleConv(p *nn.Path, cIn, cOut int64, block BlockFn) *nn.SequentialT {
	seq := nn.SeqT()
	seq.Add(block(p.Sub("conv1"), cIn, cOut))
	seq.Add(block(p.Sub("conv2"), cOut, cOut))

	return seq
}

// Pad2d pads last 2 dimensions of a [B C H W] tensor by pad on every side.
func Pad2d(x *ts.Tensor, pad int64, mode PadMode) (*ts.Tensor, error) {
	if pad < 0 {
		return nil, errors.Errorf("negative padding %d", pad)
	}
	// left, right, top, bottom
	p := []int64{pad, pad, pad, pad}
	switch mode {
	case PadSymmetric:
		// Mirroring including the edge pixel equals replication at width 1.
		if pad > 1 {
			return nil, errors.Errorf("symmetric padding supports at most 1 pixel, got %d", pad)
		}
		if pad == 0 {
			return x.MustDetach(false), nil
		}
		return x.MustReplicationPad2d(p, false), nil
	case PadReflect:
		return x.MustReflectionPad2d(p, false), nil
	case PadZero:
		return x.MustConstantPadNd(p, false), nil
	default:
		return nil, errors.Errorf("unknown pad mode %v", mode)
	}
}

// MustPad2d is Pad2d that panics on error.
func MustPad2d(x *ts.Tensor, pad int64, mode PadMode) *ts.Tensor {
	out, err := Pad2d(x, pad, mode)
	if err != nil {
		panic(err)
	}
	return out
}

// LeakyRelu returns x where x > 0 and slope*x elsewhere.
// relu(x) - slope*relu(-x)
func LeakyRelu(x *ts.Tensor, slope float64) *ts.Tensor {
	pos := x.MustRelu(false)
	neg := x.MustMul1(ts.FloatScalar(-1), false).MustRelu(true).MustMul1(ts.FloatScalar(-slope), true)
	out := pos.MustAdd(neg, true)
	neg.MustDrop()

	return out
}
