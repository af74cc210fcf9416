package metric

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// NumClasses is the number of xView2 classes: 0 = no building /
	// localization, 1..4 = damage severity.
	NumClasses = 5

	LocalizationWeight = 0.3
	DamageWeight       = 0.7

	// scorerEpsilon is added to each F1 by the xView2 reference scorer.
	scorerEpsilon = 1e-6
)

var (
	// ErrUndefinedMetric is returned by ZeroDivisionError when a damage F1 is 0.
	ErrUndefinedMetric = errors.New("undefined metric: damage class with zero F1")
	// ErrLabel is wrapped by label validation errors.
	ErrLabel = errors.New("invalid labels")
)

// ZeroDivision selects the harmonic mean behaviour when a value is zero.
type ZeroDivision int

const (
	// ZeroDivisionZero makes the mean 0 if any value is 0.
	ZeroDivisionZero ZeroDivision = iota
	// ZeroDivisionEpsilon adds 1e-6 to each value before averaging, as the
	// xView2 reference scorer does.
	ZeroDivisionEpsilon
	// ZeroDivisionError returns ErrUndefinedMetric.
	ZeroDivisionError
)

func (z ZeroDivision) String() string {
	switch z {
	case ZeroDivisionZero:
		return "zero"
	case ZeroDivisionEpsilon:
		return "epsilon"
	case ZeroDivisionError:
		return "error"
	}
	return "unknown"
}

// ParseZeroDivision parses "zero", "epsilon" or "error".
func ParseZeroDivision(s string) (ZeroDivision, error) {
	switch s {
	case "zero", "":
		return ZeroDivisionZero, nil
	case "epsilon", "eps":
		return ZeroDivisionEpsilon, nil
	case "error", "strict":
		return ZeroDivisionError, nil
	}
	return ZeroDivisionZero, errors.Errorf("unknown zero-division policy %q", s)
}

// Score is a xView2 score breakdown.
type Score struct {
	F1           []float64
	Localization float64
	Damage       float64
	Total        float64
}

func (s Score) String() string {
	return fmt.Sprintf("total: %6.4f\t localization: %6.4f\t damage: %6.4f", s.Total, s.Localization, s.Damage)
}

// HarmonicMean calculates harmonic mean of non-negative values.
func HarmonicMean(values []float64, policy ZeroDivision) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("harmonic mean of no values")
	}

	var inv float64
	for i, v := range values {
		if v < 0 {
			return 0, errors.Errorf("harmonic mean of negative value %v at %d", v, i)
		}
		switch policy {
		case ZeroDivisionEpsilon:
			v += scorerEpsilon
		case ZeroDivisionZero:
			if v == 0 {
				return 0, nil
			}
		case ZeroDivisionError:
			if v == 0 {
				return 0, errors.Wrapf(ErrUndefinedMetric, "value %d", i)
			}
		default:
			return 0, errors.Errorf("unknown zero-division policy %v", policy)
		}
		inv += 1 / v
	}

	return float64(len(values)) / inv, nil
}

// ScoreF1 combines per-class F1 into a xView2 score. f1[0] is localization,
// f1[1:] are damage classes.
func ScoreF1(f1 []float64, policy ZeroDivision) (Score, error) {
	if len(f1) < 2 {
		return Score{}, errors.Errorf("need F1 of at least 2 classes, got %d", len(f1))
	}

	damage, err := HarmonicMean(f1[1:], policy)
	if err != nil {
		return Score{F1: f1, Localization: f1[0]}, err
	}

	return Score{
		F1:           f1,
		Localization: f1[0],
		Damage:       damage,
		Total:        LocalizationWeight*f1[0] + DamageWeight*damage,
	}, nil
}

// XView2 scores predictions against ground truth labels in [0, NumClasses).
func XView2(yTrue, yPred []int64, policy ZeroDivision) (Score, error) {
	c := NewConfusion(NumClasses)
	if err := c.Add(yTrue, yPred); err != nil {
		return Score{}, err
	}

	return c.Score(policy)
}

// XView2Metric returns 0.3*localization + 0.7*damage with ZeroDivisionZero.
func XView2Metric(yTrue, yPred []int64) (float64, error) {
	s, err := XView2(yTrue, yPred, ZeroDivisionZero)
	if err != nil {
		return 0, err
	}

	return s.Total, nil
}
