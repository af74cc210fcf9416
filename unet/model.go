package unet

import (
	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/base"
	"github.com/sugarme/xview2/encoder"
)

// UNet is a UNET model struct
// Ref: https://arxiv.org/abs/1505.04597
type UNet struct {
	cfg     Config
	variant Variant
	encoder encoder.Encoder
	decoder *UNetDecoder
	segHead *nn.SequentialT
}

// New creates a UNet of given variant.
func New(p *nn.Path, v Variant, cfg Config) (*UNet, error) {
	switch v {
	case VariantA:
		return NewUNet(p, cfg)
	case VariantB:
		return NewSymPadUNet(p, cfg)
	}
	return nil, errors.Errorf("unknown model variant %v", v)
}

// NewUNet creates the shape-first UNet: two 3x3 same-padded convs per level,
// 2x2 max pooling down, 2x2 stride-2 transpose convs up, 1x1 conv and
// softmax head.
//
// cfg.Upsample is ignored, expansion is always learned.
func NewUNet(p *nn.Path, cfg Config) (*UNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Upsample = UpTranspose

	block := base.SameConvBlock(cfg.Activation, cfg.LeakySlope)
	return build(p, VariantA, cfg, block)
}

// NewSymPadUNet creates the symmetric-pad UNet: each conv block pads 1
// pixel by cfg.Padding, runs a valid 3x3 conv and a leaky ReLU with
// cfg.LeakySlope. Expansion interpolates by cfg.Upsample (nearest or
// bilinear).
func NewSymPadUNet(p *nn.Path, cfg Config) (*UNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Upsample == UpTranspose {
		return nil, errors.Errorf("symmetric-pad UNet needs interpolation upsampling, got %v", cfg.Upsample)
	}
	cfg.Activation = base.ActLeakyReLU

	block := base.PadConvBlock(cfg.Padding, cfg.LeakySlope)
	return build(p, VariantB, cfg, block)
}

func build(p *nn.Path, v Variant, cfg Config, block base.BlockFn) (*UNet, error) {
	enc, err := encoder.NewContractingEncoder(p.Sub("encoder"), cfg.Channels, cfg.Widths, block)
	if err != nil {
		return nil, err
	}
	dec, err := NewUNetDecoder(p.Sub("decoder"), cfg.Widths, cfg.Upsample, block)
	if err != nil {
		return nil, err
	}
	// cIn=widths[0], cOut=classes
	head := base.NewSegmentationHead(p.Sub("logit"), cfg.Widths[0], cfg.NumClasses)

	return &UNet{
		cfg:     cfg,
		variant: v,
		encoder: enc,
		decoder: dec,
		segHead: head,
	}, nil
}

// Config returns the config the model was built with.
func (n *UNet) Config() Config {
	return n.cfg
}

// Variant returns model variant.
func (n *UNet) Variant() Variant {
	return n.variant
}

// OutputShape returns output size for a given batch size.
func (n *UNet) OutputShape(batch int64) []int64 {
	return []int64{batch, n.cfg.NumClasses, n.cfg.Height, n.cfg.Width}
}

// Forward forwards x [B C H W] to per-pixel class probabilities [B classes H W].
func (n *UNet) Forward(x *ts.Tensor, train bool) (*ts.Tensor, error) {
	size := x.MustSize()
	want := []int64{-1, n.cfg.Channels, n.cfg.Height, n.cfg.Width}
	if len(size) != 4 || size[1] != want[1] || size[2] != want[2] || size[3] != want[3] {
		return nil, &ShapeError{Stage: "input", Got: size, Want: want}
	}

	features := n.encoder.ForwardAll(x, train)
	out, err := n.decoder.ForwardFeatures(features, train)
	for _, f := range features {
		f.MustDrop()
	}
	if err != nil {
		return nil, err
	}

	probs := n.segHead.ForwardT(out, train)
	out.MustDrop()

	return probs, nil
}

// ForwardT implements ts.ModuleT for UNet struct. It panics on shape errors.
func (n *UNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	out, err := n.Forward(x, train)
	if err != nil {
		panic(err)
	}

	return out
}
