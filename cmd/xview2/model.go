package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"k8s.io/klog/v2"

	"github.com/sugarme/xview2/base"
	"github.com/sugarme/xview2/unet"
)

// modelConfig builds model config from flags.
func modelConfig() (unet.Variant, unet.Config, error) {
	v, err := unet.ParseVariant(variant)
	if err != nil {
		return v, unet.Config{}, err
	}

	cfg := unet.DefaultConfig(v)
	cfg.Height = Height
	cfg.Width = Width
	cfg.NumClasses = Classes
	cfg.LeakySlope = Slope
	if Channels > 0 {
		cfg.Channels = Channels
	}

	switch v {
	case unet.VariantA:
		if cfg.Activation, err = base.ParseActivation(Activation); err != nil {
			return v, cfg, err
		}
	case unet.VariantB:
		if cfg.Padding, err = base.ParsePadMode(PadMode); err != nil {
			return v, cfg, err
		}
		if cfg.Upsample, err = unet.ParseUpMode(UpMode); err != nil {
			return v, cfg, err
		}
	}

	return v, cfg, nil
}

func newModel(vs *nn.VarStore) (*unet.UNet, error) {
	v, cfg, err := modelConfig()
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("Creating %v UNet: %dx%dx%d, %d classes, widths %v", v, cfg.Height, cfg.Width, cfg.Channels, cfg.NumClasses, cfg.Widths)

	return unet.New(vs.Root(), v, cfg)
}

// runCheckModel forwards random input and checks output shape and the
// softmax invariant.
func runCheckModel() error {
	vs := nn.NewVarStore(Device)
	net, err := newModel(vs)
	if err != nil {
		return err
	}
	cfg := net.Config()

	image := ts.MustRand([]int64{BatchSize, cfg.Channels, cfg.Height, cfg.Width}, gotch.Float, Device)
	defer image.MustDrop()

	si := CPUInfo()
	for i := 0; i < Iterations; i++ {
		var fwdErr error
		ts.NoGrad(func() {
			si = CPUInfo()
			ram0 := si.TotalRam - si.FreeRam

			var probs *ts.Tensor
			probs, fwdErr = net.Forward(image, false)
			if fwdErr != nil {
				return
			}
			fwdErr = checkSoftmax(probs)
			size := probs.MustSize()
			probs.MustDrop()

			si = CPUInfo()
			ram1 := si.TotalRam - si.FreeRam
			fmt.Printf("%02d- Output: %v\t Leak: %8.2fMB\n", i, size, (float64(ram1)-float64(ram0))/1024)
		})
		if fwdErr != nil {
			return fwdErr
		}
	}

	return nil
}

// checkSoftmax checks probabilities of every pixel sum to 1.
func checkSoftmax(probs *ts.Tensor) error {
	sum := probs.MustSum1([]int64{1}, false, gotch.Double, false)
	vals := sum.Float64Values()
	sum.MustDrop()

	for i, v := range vals {
		if math.Abs(v-1) > 1e-4 {
			return errors.Errorf("pixel %d: class probabilities sum to %v", i, v)
		}
	}
	klog.V(1).Infof("Softmax invariant holds for %d pixels", len(vals))

	return nil
}

func runPrintVars() error {
	vs := nn.NewVarStore(Device)
	if _, err := newModel(vs); err != nil {
		return err
	}
	printVars(vs)

	return nil
}

// printVars print variables sorted by name
func printVars(vs *nn.VarStore) {
	vars := vs.Variables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		x := vars[n]
		fmt.Printf("%v \t\t %v\n", n, x.MustSize())
	}
	fmt.Printf("Num of variables: %v\n", len(names))
}
