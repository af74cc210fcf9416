package main

import (
	"flag"
	"path/filepath"

	"github.com/sugarme/gotch"
	"k8s.io/klog/v2"
)

// flag variables
var (
	task    string
	variant string
	Cuda    bool
	Device  gotch.Device
)

// model flags
var (
	Height     int64   // input height
	Width      int64   // input width
	Channels   int64   // input channels, 0 uses variant default
	Classes    int64   // number of classes
	BatchSize  int64   // batch size of random input
	Iterations int     // forward passes of `model` task
	Activation string  // activation of shape-first variant
	Slope      float64 // leaky ReLU slope of symmetric-pad variant
	PadMode    string  // padding of symmetric-pad variant
	UpMode     string  // upsampling of symmetric-pad variant
)

// score flags
var (
	TargetDir string
	PredDir   string
	CSVPath   string
	ClassCSV  string
	PlotPath  string
	Policy    string
	Resize    bool
)

func init() {
	flag.StringVar(&task, "task", "model", "specify task to run: model, vars or score")
	flag.StringVar(&variant, "variant", "a", "specify model variant: 'a' (shape-first) or 'b' (symmetric-pad)")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not.")

	flag.Int64Var(&Height, "height", 256, "specify input image height")
	flag.Int64Var(&Width, "width", 256, "specify input image width")
	flag.Int64Var(&Channels, "channels", 0, "specify input channels (0: 3 for variant a, 6 for variant b)")
	flag.Int64Var(&Classes, "classes", 5, "specify number of classes")
	flag.Int64Var(&BatchSize, "batch", 1, "specify batch size")
	flag.IntVar(&Iterations, "iter", 1, "specify number of forward passes")
	flag.StringVar(&Activation, "activation", "none", "specify activation of variant a: none, relu, leaky_relu")
	flag.Float64Var(&Slope, "slope", 0.3, "specify leaky ReLU negative slope")
	flag.StringVar(&PadMode, "pad", "symmetric", "specify padding of variant b: symmetric, reflect, zero")
	flag.StringVar(&UpMode, "up", "nearest", "specify upsampling of variant b: nearest, bilinear")

	flag.StringVar(&TargetDir, "target", "./target", "specify target masks directory")
	flag.StringVar(&PredDir, "pred", "./pred", "specify prediction masks directory")
	flag.StringVar(&CSVPath, "csv", "", "specify per-file score CSV output")
	flag.StringVar(&ClassCSV, "class-csv", "", "specify per-class F1 CSV output")
	flag.StringVar(&PlotPath, "plot", "", "specify per-class F1 plot output (.png, .svg)")
	flag.StringVar(&Policy, "policy", "zero", "specify zero F1 policy for damage mean: zero, epsilon, error")
	flag.BoolVar(&Resize, "resize", false, "resize predictions to target size")
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	Device = gotch.CPU
	if Cuda {
		Device = gotch.NewCuda().CudaIfAvailable()
	}

	var err error
	switch task {
	case "model":
		err = runCheckModel()
	case "vars":
		err = runPrintVars()
	case "score":
		err = runScore()
	default:
		klog.Fatalf("Unknown 'task' name %q. Please specify valid 'task' flag to run.", task)
	}
	if err != nil {
		klog.Fatalf("Task %q failed: %+v", task, err)
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		klog.Fatal(err)
	}
	return fullpath
}
