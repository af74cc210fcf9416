package eval

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ClassNames are xView2 classes in label order.
var ClassNames = []string{"no-building", "no-damage", "minor-damage", "major-damage", "destroyed"}

func className(i int) string {
	if i < len(ClassNames) {
		return ClassNames[i]
	}
	return fmt.Sprintf("class-%d", i)
}

// FileFrame returns per-file scores as a dataframe.
func FileFrame(r *Report) dataframe.DataFrame {
	n := len(r.Files)
	var (
		names     = make([]string, n)
		pixels    = make([]int, n)
		loc       = make([]float64, n)
		damage    = make([]float64, n)
		total     = make([]float64, n)
		undefined = make([]bool, n)
	)
	for i, f := range r.Files {
		names[i] = f.Name
		pixels[i] = f.Pixels
		loc[i] = f.Score.Localization
		damage[i] = f.Score.Damage
		total[i] = f.Score.Total
		undefined[i] = f.Undefined
	}

	return dataframe.New(
		series.New(names, series.String, "file"),
		series.New(pixels, series.Int, "pixels"),
		series.New(loc, series.Float, "localization"),
		series.New(damage, series.Float, "damage"),
		series.New(total, series.Float, "score"),
		series.New(undefined, series.Bool, "undefined"),
	)
}

// ClassFrame returns aggregate per-class F1 as a dataframe.
func ClassFrame(r *Report) dataframe.DataFrame {
	f1 := r.Score.F1
	names := make([]string, len(f1))
	for i := range f1 {
		names[i] = className(i)
	}

	return dataframe.New(
		series.New(names, series.String, "class"),
		series.New(f1, series.Float, "f1"),
	)
}

// WriteCSV writes per-file scores as CSV.
func WriteCSV(w io.Writer, r *Report) error {
	df := FileFrame(r)
	if df.Err != nil {
		return df.Err
	}

	return df.WriteCSV(w)
}

// WriteClassCSV writes aggregate per-class F1 as CSV.
func WriteClassCSV(w io.Writer, r *Report) error {
	df := ClassFrame(r)
	if df.Err != nil {
		return df.Err
	}

	return df.WriteCSV(w)
}

// PlotF1 saves a bar chart of per-class F1 to file. Format follows the
// file extension (png, svg, pdf...).
func PlotF1(filename string, f1 []float64) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "xView2 per-class F1"
	p.Y.Label.Text = "F1"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(plotter.Values(f1), vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "creating bar chart")
	}
	p.Add(bars)

	names := make([]string, len(f1))
	for i := range f1 {
		names[i] = className(i)
	}
	p.NominalX(names...)

	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
