package base_test

import (
	"math"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/base"
)

func TestLeakyRelu(t *testing.T) {
	x := ts.MustOfSlice([]float64{-2, -1, 0, 1, 2})
	got := base.LeakyRelu(x, 0.3).Float64Values()
	want := []float64{-0.6, -0.3, 0, 1, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPad2dSymmetric(t *testing.T) {
	x := ts.MustOfSlice([]float32{1, 2, 3, 4}).MustView([]int64{1, 1, 2, 2}, true)

	out, err := base.Pad2d(x, 1, base.PadSymmetric)
	if err != nil {
		t.Fatal(err)
	}
	size := out.MustSize()
	if size[2] != 4 || size[3] != 4 {
		t.Fatalf("want 4x4, got %v", size)
	}
	got := out.Float64Values()
	want := []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%d: want %v, got %v", i, want[i], got[i])
		}
	}

	if _, err := base.Pad2d(x, 2, base.PadSymmetric); err == nil {
		t.Errorf("want error for symmetric padding wider than 1")
	}
}

func TestPad2dReflectAndZero(t *testing.T) {
	tests := []struct {
		mode base.PadMode
		want []float64
	}{
		{base.PadReflect, []float64{
			4, 3, 4, 3,
			2, 1, 2, 1,
			4, 3, 4, 3,
			2, 1, 2, 1,
		}},
		{base.PadZero, []float64{
			0, 0, 0, 0,
			0, 1, 2, 0,
			0, 3, 4, 0,
			0, 0, 0, 0,
		}},
	}
	for _, tt := range tests {
		x := ts.MustOfSlice([]float32{1, 2, 3, 4}).MustView([]int64{1, 1, 2, 2}, true)
		out, err := base.Pad2d(x, 1, tt.mode)
		if err != nil {
			t.Fatalf("%v: %v", tt.mode, err)
		}
		size := out.MustSize()
		if size[2] != 4 || size[3] != 4 {
			t.Fatalf("%v: want 4x4, got %v", tt.mode, size)
		}
		got := out.Float64Values()
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%v %d: want %v, got %v", tt.mode, i, tt.want[i], got[i])
			}
		}
	}
}

func TestSameConvBlockNoActivation(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := base.SameConvBlock(base.ActNone, 0)(vs.Root(), 3, 4)
	if _, ok := block.(*nn.Conv2D); !ok {
		t.Fatalf("want bare *nn.Conv2D without activation, got %T", block)
	}

	x := ts.MustRand([]int64{1, 3, 5, 5}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, false)
	size := out.MustSize()
	want := []int64{1, 4, 5, 5}
	for i := range want {
		if size[i] != want[i] {
			t.Fatalf("want size %v, got %v", want, size)
		}
	}

	relu := base.SameConvBlock(base.ActReLU, 0)(vs.Root().Sub("relu"), 3, 4)
	out = relu.ForwardT(x, false)
	for i, v := range out.Float64Values() {
		if v < 0 {
			t.Fatalf("%d: want non-negative after relu, got %v", i, v)
		}
	}
}

func TestPadConvBlockKeepsSize(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	block := base.PadConvBlock(base.PadSymmetric, base.DefaultLeakySlope)(vs.Root(), 6, 4)

	x := ts.MustRand([]int64{2, 6, 9, 7}, gotch.Float, gotch.CPU)
	out := block.ForwardT(x, false)
	size := out.MustSize()
	want := []int64{2, 4, 9, 7}
	for i := range want {
		if size[i] != want[i] {
			t.Fatalf("want size %v, got %v", want, size)
		}
	}
}

func TestSegmentationHeadSoftmax(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	head := base.NewSegmentationHead(vs.Root(), 4, 5)

	x := ts.MustRand([]int64{1, 4, 3, 3}, gotch.Float, gotch.CPU)
	out := head.ForwardT(x, false)
	sum := out.MustSum1([]int64{1}, false, gotch.Double, false)
	for i, v := range sum.Float64Values() {
		if math.Abs(v-1) > 1e-5 {
			t.Errorf("pixel %d: probabilities sum to %v", i, v)
		}
	}
}

func TestParse(t *testing.T) {
	if a, err := base.ParseActivation("relu"); err != nil || a != base.ActReLU {
		t.Errorf("want relu, got %v, %v", a, err)
	}
	if _, err := base.ParseActivation("gelu"); err == nil {
		t.Errorf("want error for unknown activation")
	}
	if base.ActNone.Func(0) != nil {
		t.Errorf("want no function for ActNone")
	}
	if base.ActLeakyReLU.Func(0.3) == nil {
		t.Errorf("want function for ActLeakyReLU")
	}
	if m, err := base.ParsePadMode("reflect"); err != nil || m != base.PadReflect {
		t.Errorf("want reflect, got %v, %v", m, err)
	}
}
