package unet

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/sugarme/xview2/base"
)

// Variant selects one of the two UNet architectures.
type Variant int

const (
	// VariantA is the shape-first UNet: same-padded convs and
	// transpose-conv expansion.
	VariantA Variant = iota
	// VariantB is the symmetric-pad UNet: explicit padding, valid convs,
	// leaky ReLU and interpolation expansion.
	VariantB
)

func (v Variant) String() string {
	switch v {
	case VariantA:
		return "shape-first"
	case VariantB:
		return "symmetric-pad"
	}
	return "unknown"
}

// ParseVariant parses "a"/"shape-first" or "b"/"symmetric-pad".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "a", "shape-first", "shapefirst":
		return VariantA, nil
	case "b", "symmetric-pad", "sympad":
		return VariantB, nil
	}
	return VariantA, errors.Errorf("unknown model variant %q", s)
}

// UpMode is the decoder upsampling method.
type UpMode int

const (
	UpTranspose UpMode = iota
	UpNearest
	UpBilinear
)

func (m UpMode) String() string {
	switch m {
	case UpTranspose:
		return "transpose"
	case UpNearest:
		return "nearest"
	case UpBilinear:
		return "bilinear"
	}
	return "unknown"
}

// ParseUpMode parses "transpose", "nearest" or "bilinear".
func ParseUpMode(s string) (UpMode, error) {
	switch strings.ToLower(s) {
	case "transpose", "deconv":
		return UpTranspose, nil
	case "nearest":
		return UpNearest, nil
	case "bilinear":
		return UpBilinear, nil
	}
	return UpNearest, errors.Errorf("unknown upsampling mode %q", s)
}

// DefaultWidths are the channel widths of the 4 contracting levels and the
// bottleneck.
var DefaultWidths = []int64{64, 128, 256, 512, 1024}

// Config holds UNet hyper-parameters.
type Config struct {
	Height     int64
	Width      int64
	Channels   int64
	NumClasses int64

	// Widths has one entry per encoder level, the last one is the bottleneck.
	Widths []int64

	// Activation after each conv of VariantA.
	Activation base.Activation
	// LeakySlope is the negative slope of VariantB activations.
	LeakySlope float64
	// Padding is the VariantB border mode.
	Padding base.PadMode
	// Upsample is the VariantB expansion mode. VariantA always uses
	// transpose convolutions.
	Upsample UpMode
}

// DefaultConfig returns the default config of a variant: 1024x1024 input,
// 3 channels for VariantA, 6 (pre/post image pair) for VariantB, 5 classes.
func DefaultConfig(v Variant) Config {
	cfg := Config{
		Height:     1024,
		Width:      1024,
		Channels:   3,
		NumClasses: 5,
		Widths:     append([]int64(nil), DefaultWidths...),
		Activation: base.ActNone,
		LeakySlope: base.DefaultLeakySlope,
		Padding:    base.PadSymmetric,
		Upsample:   UpTranspose,
	}
	if v == VariantB {
		cfg.Channels = 6
		cfg.Activation = base.ActLeakyReLU
		cfg.Upsample = UpNearest
	}

	return cfg
}

// Levels returns number of encoder levels including the bottleneck.
func (c Config) Levels() int {
	return len(c.Widths)
}

// Validate checks the config can build a graph whose skip connections line up.
func (c Config) Validate() error {
	if c.Height <= 0 || c.Width <= 0 || c.Channels <= 0 {
		return errors.Errorf("invalid input shape %dx%dx%d", c.Height, c.Width, c.Channels)
	}
	if c.NumClasses < 2 {
		return errors.Errorf("need at least 2 classes, got %d", c.NumClasses)
	}
	if len(c.Widths) < 2 {
		return errors.Errorf("need at least 2 levels, got %d", len(c.Widths))
	}
	for i, w := range c.Widths {
		if w <= 0 {
			return errors.Errorf("invalid width %d at level %d", w, i)
		}
	}
	if c.LeakySlope < 0 {
		return errors.Errorf("negative leaky slope %v", c.LeakySlope)
	}

	// Every pooling halves H and W, so they must stay whole down to the bottleneck.
	factor := int64(1) << uint(len(c.Widths)-1)
	if c.Height%factor != 0 || c.Width%factor != 0 {
		return errors.WithStack(&ShapeError{
			Stage: "input",
			Got:   []int64{c.Height, c.Width},
			Want:  []int64{roundUp(c.Height, factor), roundUp(c.Width, factor)},
		})
	}

	return nil
}

func roundUp(v, m int64) int64 {
	return (v + m - 1) / m * m
}
