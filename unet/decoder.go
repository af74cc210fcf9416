package unet

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/base"
)

// Up is an expansion stage: upsample, concat with skip, double conv.
type Up struct {
	upsample   func(x *ts.Tensor) *ts.Tensor
	DoubleConv *nn.SequentialT
}

// NewTransposeUp creates an Up layer whose 2x2 stride-2 transpose conv
// maps cIn to cOut channels. The double conv sees cOut+skip channels.
func NewTransposeUp(p *nn.Path, cIn, skip, cOut int64, block base.BlockFn) *Up {
	config := &nn.ConvTranspose2DConfig{
		Stride:        []int64{1, 1},
		Padding:       []int64{0, 0},
		OutputPadding: []int64{0, 0},
		Dilation:      []int64{1, 1},
		Groups:        1,
		Bias:          true,
		WsInit:        nn.NewKaimingUniformInit(),
		BsInit:        nn.NewConstInit(float64(0.0)),
	}
	config.Stride = []int64{2, 2}
	config.Padding = []int64{0, 0}
	deconv := nn.NewConvTranspose2D(p.Sub("upconv"), cIn, cOut, []int64{2, 2}, config)

	return &Up{
		upsample: func(x *ts.Tensor) *ts.Tensor {
			return deconv.Forward(x)
		},
		DoubleConv: base.DoubleConv(p, cOut+skip, cOut, block),
	}
}

// NewInterpUp creates an Up layer doubling H and W by interpolation. Channels
// are kept, so the double conv sees cIn+skip channels.
func NewInterpUp(p *nn.Path, cIn, skip, cOut int64, mode UpMode, block base.BlockFn) (*Up, error) {
	if mode != UpNearest && mode != UpBilinear {
		return nil, errors.Errorf("interpolation upsampling does not support mode %v", mode)
	}

	return &Up{
		upsample: func(x *ts.Tensor) *ts.Tensor {
			return upsampling(x, mode)
		},
		DoubleConv: base.DoubleConv(p, cIn+skip, cOut, block),
	}, nil
}

// UpForward upsamples x, concatenates it with skip and forwards through double conv.
// x, skip should be in shape [Batch CHW]
func (l *Up) UpForward(x, skip *ts.Tensor, train bool) (*ts.Tensor, error) {
	xUp := l.upsample(x)

	upSize := xUp.MustSize()
	skipSize := skip.MustSize()
	if !reflect.DeepEqual(upSize[2:], skipSize[2:]) {
		xUp.MustDrop()
		return nil, &ShapeError{Stage: "skip", Got: upSize, Want: skipSize}
	}

	// concatenating along channels: [upsampled, skip]
	cat := ts.MustCat([]ts.Tensor{*xUp, *skip}, 1)
	xUp.MustDrop()

	out := l.DoubleConv.ForwardT(cat, train)
	cat.MustDrop()

	return out, nil
}

// upsampling doubles H and W of a [B C H W] tensor.
func upsampling(x *ts.Tensor, mode UpMode) *ts.Tensor {
	size := x.MustSize()
	outSize := []int64{size[2] * 2, size[3] * 2}
	if mode == UpBilinear {
		return x.MustUpsampleBilinear2d(outSize, false, nil, nil, false)
	}

	return x.MustUpsampleNearest2d(outSize, nil, nil, false)
}

// UNetDecoder is the expansive path of a UNet model.
type UNetDecoder struct {
	ups []*Up
}

// NewUNetDecoder creates one Up per encoder level above the bottleneck.
// widths are the encoder widths, shallowest first.
func NewUNetDecoder(p *nn.Path, widths []int64, mode UpMode, block base.BlockFn) (*UNetDecoder, error) {
	if len(widths) < 2 {
		return nil, errors.Errorf("decoder needs at least 2 encoder levels, got %d", len(widths))
	}

	var ups []*Up
	for i := len(widths) - 2; i >= 0; i-- {
		up := p.Sub(fmt.Sprintf("up%d", len(widths)-2-i))
		// input comes from the level below (bottleneck or previous Up)
		cIn, skip, cOut := widths[i+1], widths[i], widths[i]
		switch mode {
		case UpTranspose:
			ups = append(ups, NewTransposeUp(up, cIn, skip, cOut, block))
		default:
			l, err := NewInterpUp(up, cIn, skip, cOut, mode, block)
			if err != nil {
				return nil, err
			}
			ups = append(ups, l)
		}
	}

	return &UNetDecoder{ups: ups}, nil
}

// Depth returns number of expansion stages.
func (d *UNetDecoder) Depth() int {
	return len(d.ups)
}

// ForwardFeatures forwards through encoder features, shallowest first with
// the bottleneck last.
func (d *UNetDecoder) ForwardFeatures(features []*ts.Tensor, train bool) (*ts.Tensor, error) {
	if len(features) != len(d.ups)+1 {
		return nil, errors.Wrapf(ErrShape, "expected %d feature tensors, got %d", len(d.ups)+1, len(features))
	}

	// E.g. widths 64..1024, input 256x256:
	// z0 [B 512 32 32], z1 [B 256 64 64], z2 [B 128 128 128], z3 [B 64 256 256]
	z := features[len(features)-1]
	for i, up := range d.ups {
		skip := features[len(features)-2-i]
		next, err := up.UpForward(z, skip, train)
		if i > 0 {
			z.MustDrop()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decoder stage %d", i)
		}
		z = next
	}

	return z, nil
}
