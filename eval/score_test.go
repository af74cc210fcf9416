package eval_test

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sugarme/xview2/eval"
	"github.com/sugarme/xview2/metric"
)

func writeMask(t *testing.T, path string, w, h int, labels []uint8) {
	t.Helper()
	m := image.NewGray(image.Rect(0, 0, w, h))
	copy(m.Pix, labels)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, m); err != nil {
		t.Fatal(err)
	}
}

func setup(t *testing.T) (targetDir, predDir string) {
	t.Helper()
	root := t.TempDir()
	targetDir = filepath.Join(root, "target")
	predDir = filepath.Join(root, "pred")
	for _, d := range []string{targetDir, predDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return targetDir, predDir
}

func TestEvaluatePerfect(t *testing.T) {
	targetDir, predDir := setup(t)
	labels := []uint8{0, 1, 2, 3, 4, 0}
	writeMask(t, filepath.Join(targetDir, "a.png"), 3, 2, labels)
	writeMask(t, filepath.Join(predDir, "a.png"), 3, 2, labels)
	// extra prediction is ignored
	writeMask(t, filepath.Join(predDir, "b.png"), 3, 2, labels)

	pairs, err := eval.MatchPairs(targetDir, predDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 || pairs[0].Name != "a" {
		t.Fatalf("unexpected pairs %v", pairs)
	}

	r, err := eval.NewEvaluator().Evaluate(pairs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Score.Total-1) > 1e-9 {
		t.Errorf("want 1.0, got %v", r.Score.Total)
	}
	if r.Confusion.Total() != 6 {
		t.Errorf("want 6 pixels, got %v", r.Confusion.Total())
	}

	var buf bytes.Buffer
	if err := eval.WriteCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "file,pixels,localization,damage,score") {
		t.Errorf("unexpected CSV:\n%s", buf.String())
	}

	buf.Reset()
	if err := eval.WriteClassCSV(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "destroyed") {
		t.Errorf("unexpected class CSV:\n%s", buf.String())
	}

	if err := eval.PlotF1(filepath.Join(t.TempDir(), "f1.png"), r.Score.F1); err != nil {
		t.Errorf("plot: %v", err)
	}
}

func TestEvaluateResize(t *testing.T) {
	targetDir, predDir := setup(t)
	writeMask(t, filepath.Join(targetDir, "a.png"), 4, 4, []uint8{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	})
	writeMask(t, filepath.Join(predDir, "a.png"), 2, 2, []uint8{1, 2, 3, 4})

	pairs, err := eval.MatchPairs(targetDir, predDir)
	if err != nil {
		t.Fatal(err)
	}

	e := eval.NewEvaluator()
	if _, err := e.Evaluate(pairs); err == nil {
		t.Fatalf("want size mismatch error")
	}

	e.Resize = true
	r, err := e.Evaluate(pairs)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < metric.NumClasses; i++ {
		if math.Abs(r.Score.F1[i]-1) > 1e-9 {
			t.Errorf("class %d: want F1 1 after nearest resize, got %v", i, r.Score.F1[i])
		}
	}
}

func TestEvaluateUndefined(t *testing.T) {
	targetDir, predDir := setup(t)
	writeMask(t, filepath.Join(targetDir, "a.png"), 2, 1, []uint8{0, 1})
	writeMask(t, filepath.Join(predDir, "a.png"), 2, 1, []uint8{0, 0})

	pairs, err := eval.MatchPairs(targetDir, predDir)
	if err != nil {
		t.Fatal(err)
	}
	e := eval.NewEvaluator()
	e.Policy = metric.ZeroDivisionError
	r, err := e.Evaluate(pairs)
	if err == nil {
		t.Fatalf("want undefined metric error")
	}
	if r == nil || len(r.Files) != 1 || !r.Files[0].Undefined {
		t.Errorf("want file flagged undefined, got %+v", r)
	}
}

func TestMatchPairsMissing(t *testing.T) {
	targetDir, predDir := setup(t)
	writeMask(t, filepath.Join(targetDir, "a.png"), 1, 1, []uint8{0})

	if _, err := eval.MatchPairs(targetDir, predDir); err == nil {
		t.Errorf("want error for missing prediction")
	}
}

func TestReadMaskUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.bmp")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := eval.ReadMask(path); err == nil {
		t.Errorf("want error for unsupported format")
	}
}
