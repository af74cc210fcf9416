package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/sugarme/xview2/eval"
	"github.com/sugarme/xview2/metric"
)

func runScore() error {
	policy, err := metric.ParseZeroDivision(Policy)
	if err != nil {
		return err
	}

	pairs, err := eval.MatchPairs(absPath(TargetDir), absPath(PredDir))
	if err != nil {
		return err
	}
	klog.Infof("Scoring %d mask pairs", len(pairs))

	e := eval.NewEvaluator()
	e.NumClasses = int(Classes)
	e.Policy = policy
	e.Resize = Resize

	r, err := e.Evaluate(pairs)
	if err != nil {
		return err
	}

	for _, f := range r.Files {
		klog.V(1).Infof("%v\t %v", f.Name, f.Score)
	}
	fmt.Printf("Pixels: %v\t %v\n", r.Confusion.Total(), r.Score)
	for i, f1 := range r.Score.F1 {
		fmt.Printf("class %d F1: %6.4f\n", i, f1)
	}

	if CSVPath != "" {
		if err := writeFile(CSVPath, func(f *os.File) error { return eval.WriteCSV(f, r) }); err != nil {
			return err
		}
	}
	if ClassCSV != "" {
		if err := writeFile(ClassCSV, func(f *os.File) error { return eval.WriteClassCSV(f, r) }); err != nil {
			return err
		}
	}
	if PlotPath != "" {
		if err := eval.PlotF1(absPath(PlotPath), r.Score.F1); err != nil {
			return errors.Wrapf(err, "saving plot %q", PlotPath)
		}
	}

	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(absPath(path))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %q", path)
	}
	return f.Close()
}
