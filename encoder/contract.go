package encoder

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/base"
)

// Down is a SequentialT module composed of maxpool and 2x conv.
type Down struct {
	MaxpoolConv *nn.SequentialT
}

// NewDown creates a new Down ModuleT layer.
func NewDown(p *nn.Path, cIn, cOut int64, block base.BlockFn) *Down {
	doubleconv := base.DoubleConv(p, cIn, cOut, block)

	down := nn.SeqT()
	down.AddFn(nn.NewFunc(func(x *ts.Tensor) *ts.Tensor {
		// Down sample to half size: [B C H W] => [B C H/2 W/2]
		// ksize = 2; stride=2; padding=0; dilation=1; ceil=false
		return x.MustMaxPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, []int64{1, 1}, false, false)
	}))
	down.Add(doubleconv)

	return &Down{down}
}

// ForwardT implements nn.ModuleT interface.
func (l *Down) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return l.MaxpoolConv.ForwardT(x, train)
}

// ContractingEncoder is the contracting path of a UNet. The last level is
// the bottleneck ("base of the U").
type ContractingEncoder struct {
	levels []ts.ModuleT
	widths []int64
}

// NewContractingEncoder creates a contracting path with one level per width.
// Level 0 is a double conv at input resolution, each deeper level halves
// resolution with max pooling before its double conv.
func NewContractingEncoder(p *nn.Path, cIn int64, widths []int64, block base.BlockFn) (*ContractingEncoder, error) {
	if len(widths) < 2 {
		return nil, errors.Errorf("encoder needs at least 2 levels, got %d", len(widths))
	}
	if cIn <= 0 {
		return nil, errors.Errorf("invalid input channels %d", cIn)
	}

	levels := make([]ts.ModuleT, 0, len(widths))
	prev := cIn
	for i, w := range widths {
		if w <= 0 {
			return nil, errors.Errorf("invalid width %d at level %d", w, i)
		}
		lp := p.Sub(fmt.Sprintf("down%d", i))
		if i == 0 {
			levels = append(levels, base.DoubleConv(lp, prev, w, block))
		} else {
			levels = append(levels, NewDown(lp, prev, w, block))
		}
		prev = w
	}

	return &ContractingEncoder{levels: levels, widths: widths}, nil
}

// Widths returns output channels of each level.
func (e *ContractingEncoder) Widths() []int64 {
	return e.widths
}

// ForwardAll implements Encoder interface for ContractingEncoder.
// E.g. x [B 3 256 256], widths 64..1024:
// 0- [B   64 256 256]
// 1- [B  128 128 128]
// 2- [B  256  64  64]
// 3- [B  512  32  32]
// 4- [B 1024  16  16]
func (e *ContractingEncoder) ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor {
	features := make([]*ts.Tensor, 0, len(e.levels))
	h := x
	for _, l := range e.levels {
		h = l.ForwardT(h, train)
		features = append(features, h)
	}

	return features
}
