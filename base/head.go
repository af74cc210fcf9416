package base

import (
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// NewSegmentationHead creates new SegmentatationHead (nn.SequentialT):
// 1x1 conv to nClasses channels and softmax over the channel dimension.
func NewSegmentationHead(p *nn.Path, cIn, nClasses int64) *nn.SequentialT {
	seq := nn.SeqT()
	seq.Add(Conv2d(p, cIn, nClasses, 1, 0, 1))
	seq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		// [B C H W]: probabilities along C
		return xs.MustSoftmax(1, gotch.Float, false)
	}))

	return seq
}
