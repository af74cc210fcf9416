package unet

import (
	"errors"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/base"
)

func TestUpForwardSkipMismatch(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := base.SameConvBlock(base.ActNone, 0)
	up := NewTransposeUp(vs.Root(), 8, 4, 4, block)

	x := ts.MustRand([]int64{1, 8, 4, 4}, gotch.Float, gotch.CPU)
	skip := ts.MustRand([]int64{1, 4, 6, 6}, gotch.Float, gotch.CPU)

	_, err := up.UpForward(x, skip, false)
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("want ShapeError, got %v", err)
	}
	if se.Got[2] != 8 || se.Want[2] != 6 {
		t.Errorf("unexpected shape error: %v", se)
	}

	// matching skip works and halves channels before concat
	skip8 := ts.MustRand([]int64{1, 4, 8, 8}, gotch.Float, gotch.CPU)
	out, err := up.UpForward(x, skip8, false)
	if err != nil {
		t.Fatal(err)
	}
	size := out.MustSize()
	if size[1] != 4 || size[2] != 8 || size[3] != 8 {
		t.Errorf("want [1 4 8 8], got %v", size)
	}
}

func TestDecoderDepthMismatch(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := base.PadConvBlock(base.PadSymmetric, base.DefaultLeakySlope)
	dec, err := NewUNetDecoder(vs.Root(), []int64{4, 8, 16}, UpNearest, block)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Depth() != 2 {
		t.Fatalf("want depth 2, got %d", dec.Depth())
	}

	// three decoder inputs expected, only two given
	f0 := ts.MustRand([]int64{1, 4, 8, 8}, gotch.Float, gotch.CPU)
	f1 := ts.MustRand([]int64{1, 8, 4, 4}, gotch.Float, gotch.CPU)
	_, err = dec.ForwardFeatures([]*ts.Tensor{f0, f1}, false)
	if !errors.Is(err, ErrShape) {
		t.Errorf("want ErrShape, got %v", err)
	}

	// bottleneck at wrong resolution: 2x upsample gives 6x6 against 4x4 skip
	f2 := ts.MustRand([]int64{1, 16, 3, 3}, gotch.Float, gotch.CPU)
	_, err = dec.ForwardFeatures([]*ts.Tensor{f0, f1, f2}, false)
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Errorf("want ShapeError, got %v", err)
	}
}
