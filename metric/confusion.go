package metric

import (
	"github.com/pkg/errors"
)

// Confusion is a confusion matrix: m[true][pred] counts.
type Confusion struct {
	n int
	m [][]int64
}

// NewConfusion creates an empty n-class confusion matrix.
func NewConfusion(n int) *Confusion {
	m := make([][]int64, n)
	for i := range m {
		m[i] = make([]int64, n)
	}

	return &Confusion{n: n, m: m}
}

// NumClasses returns number of classes.
func (c *Confusion) NumClasses() int {
	return c.n
}

// Add accumulates label pairs. Nothing is added if any label is invalid.
func (c *Confusion) Add(yTrue, yPred []int64) error {
	if len(yTrue) != len(yPred) {
		return errors.Wrapf(ErrLabel, "length mismatch: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	n := int64(c.n)
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= n {
			return errors.Wrapf(ErrLabel, "true label %d at %d out of range [0, %d)", yTrue[i], i, n)
		}
		if yPred[i] < 0 || yPred[i] >= n {
			return errors.Wrapf(ErrLabel, "predicted label %d at %d out of range [0, %d)", yPred[i], i, n)
		}
	}
	for i := range yTrue {
		c.m[yTrue[i]][yPred[i]]++
	}

	return nil
}

// Merge adds counts of other into c.
func (c *Confusion) Merge(other *Confusion) error {
	if other.n != c.n {
		return errors.Errorf("cannot merge %d-class confusion into %d-class", other.n, c.n)
	}
	for i := range c.m {
		for j := range c.m[i] {
			c.m[i][j] += other.m[i][j]
		}
	}

	return nil
}

// Count returns number of samples with true label t predicted as p.
func (c *Confusion) Count(t, p int) int64 {
	return c.m[t][p]
}

// Total returns number of accumulated samples.
func (c *Confusion) Total() int64 {
	var total int64
	for i := range c.m {
		for j := range c.m[i] {
			total += c.m[i][j]
		}
	}

	return total
}

// F1 returns per-class F1 = 2tp / (2tp + fp + fn). A class never seen in
// ground truth nor predictions scores 0.
func (c *Confusion) F1() []float64 {
	f1 := make([]float64, c.n)
	for k := 0; k < c.n; k++ {
		tp := c.m[k][k]
		var fp, fn int64
		for j := 0; j < c.n; j++ {
			if j == k {
				continue
			}
			fn += c.m[k][j]
			fp += c.m[j][k]
		}
		denom := 2*tp + fp + fn
		if denom == 0 {
			continue
		}
		f1[k] = float64(2*tp) / float64(denom)
	}

	return f1
}

// Score returns xView2 score of accumulated counts.
func (c *Confusion) Score(policy ZeroDivision) (Score, error) {
	return ScoreF1(c.F1(), policy)
}

// F1PerClass calculates F1 of each class in [0, n) without averaging.
func F1PerClass(yTrue, yPred []int64, n int) ([]float64, error) {
	c := NewConfusion(n)
	if err := c.Add(yTrue, yPred); err != nil {
		return nil, err
	}

	return c.F1(), nil
}
