package eval

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sugarme/xview2/metric"
)

// Pair is a target mask and the prediction for the same image.
type Pair struct {
	Name   string
	Target string
	Pred   string
}

// MatchPairs pairs masks of targetDir and predDir by file name without
// extension. Every target needs a prediction; extra predictions are ignored.
func MatchPairs(targetDir, predDir string) ([]Pair, error) {
	preds, err := maskFiles(predDir)
	if err != nil {
		return nil, err
	}
	targets, err := maskFiles(targetDir)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.Errorf("no target masks in %q", targetDir)
	}

	names := make([]string, 0, len(targets))
	for n := range targets {
		names = append(names, n)
	}
	sort.Strings(names)

	var pairs []Pair
	for _, n := range names {
		p, ok := preds[n]
		if !ok {
			return nil, errors.Errorf("no prediction for target %q in %q", targets[n], predDir)
		}
		pairs = append(pairs, Pair{Name: n, Target: targets[n], Pred: p})
	}

	return pairs, nil
}

// maskFiles maps base name without extension to full path.
func maskFiles(dir string) (map[string]string, error) {
	files, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %q", dir)
	}

	masks := make(map[string]string)
	for _, f := range files {
		if f.IsDir() || !isMask(f.Name()) {
			continue
		}
		name := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		masks[name] = filepath.Join(dir, f.Name())
	}

	return masks, nil
}

// Evaluator scores pairs of masks.
type Evaluator struct {
	NumClasses int
	Policy     metric.ZeroDivision
	// Resize resizes predictions to target size instead of failing.
	Resize bool
}

// NewEvaluator creates an Evaluator for xView2 classes.
func NewEvaluator() *Evaluator {
	return &Evaluator{NumClasses: metric.NumClasses, Policy: metric.ZeroDivisionZero}
}

// FileScore is the score of a single pair.
type FileScore struct {
	Name   string
	Pixels int
	Score  metric.Score
	// Undefined is set when the metric is undefined for this file under
	// ZeroDivisionError.
	Undefined bool
}

// Report is per-file and aggregate scores.
type Report struct {
	Files []FileScore
	// Score is computed over all pixels of all files.
	Score     metric.Score
	Confusion *metric.Confusion
}

// Evaluate scores every pair and the aggregate over all pixels.
func (e *Evaluator) Evaluate(pairs []Pair) (*Report, error) {
	total := metric.NewConfusion(e.NumClasses)
	r := &Report{Confusion: total}

	for _, p := range pairs {
		c, pixels, err := e.confusion(p)
		if err != nil {
			return nil, err
		}
		if err := total.Merge(c); err != nil {
			return nil, err
		}

		fs := FileScore{Name: p.Name, Pixels: pixels}
		fs.Score, err = c.Score(e.Policy)
		if errors.Is(err, metric.ErrUndefinedMetric) {
			fs.Undefined = true
		} else if err != nil {
			return nil, errors.Wrapf(err, "scoring %q", p.Name)
		}
		r.Files = append(r.Files, fs)
	}

	var err error
	r.Score, err = total.Score(e.Policy)
	if err != nil {
		return r, err
	}

	return r, nil
}

func (e *Evaluator) confusion(p Pair) (*metric.Confusion, int, error) {
	target, err := ReadMask(p.Target)
	if err != nil {
		return nil, 0, err
	}
	pred, err := ReadMask(p.Pred)
	if err != nil {
		return nil, 0, err
	}

	tb, pb := target.Bounds(), pred.Bounds()
	if tb.Size() != pb.Size() {
		if !e.Resize {
			return nil, 0, errors.Errorf("%q: prediction size %v differs from target size %v", p.Name, pb.Size(), tb.Size())
		}
		pred = ResizeMask(pred, tb.Dx(), tb.Dy())
	}

	yTrue, yPred := Labels(target), Labels(pred)
	c := metric.NewConfusion(e.NumClasses)
	if err := c.Add(yTrue, yPred); err != nil {
		return nil, 0, errors.Wrapf(err, "%q", p.Name)
	}

	return c, len(yTrue), nil
}
