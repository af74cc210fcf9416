package metric

import (
	"github.com/pkg/errors"
	ts "github.com/sugarme/gotch/tensor"
)

// OneHot builds a [batch nClasses h w] float tensor from labels laid out
// as [batch h w].
func OneHot(labels []int64, nClasses, batch, h, w int64) (*ts.Tensor, error) {
	pixels := batch * h * w
	if int64(len(labels)) != pixels {
		return nil, errors.Wrapf(ErrLabel, "got %d labels for %dx%dx%d pixels", len(labels), batch, h, w)
	}

	data := make([]float32, pixels*nClasses)
	for i, c := range labels {
		if c < 0 || c >= nClasses {
			return nil, errors.Wrapf(ErrLabel, "label %d at %d out of range [0, %d)", c, i, nClasses)
		}
		b := int64(i) / (h * w)
		yx := int64(i) % (h * w)
		data[(b*nClasses+c)*h*w+yx] = 1
	}

	return ts.MustOfSlice(data).MustView([]int64{batch, nClasses, h, w}, true), nil
}

// LabelsFromProbs takes argmax over channels of a [B C H W] tensor and
// returns labels laid out as [B H W]. Works on one-hot targets too.
func LabelsFromProbs(prob *ts.Tensor) ([]int64, error) {
	size := prob.MustSize()
	if len(size) != 4 {
		return nil, errors.Errorf("expected [B C H W] tensor, got size %v", size)
	}
	b, c, hw := size[0], size[1], size[2]*size[3]

	vals := prob.Float64Values()
	labels := make([]int64, b*hw)
	for n := int64(0); n < b; n++ {
		for i := int64(0); i < hw; i++ {
			var best int64
			bestVal := vals[n*c*hw+i]
			for k := int64(1); k < c; k++ {
				if v := vals[(n*c+k)*hw+i]; v > bestVal {
					best, bestVal = k, v
				}
			}
			labels[n*hw+i] = best
		}
	}

	return labels, nil
}

// XView2Tensor scores probabilities against one-hot targets, both [B C H W].
func XView2Tensor(prob, target *ts.Tensor, policy ZeroDivision) (Score, error) {
	yPred, err := LabelsFromProbs(prob)
	if err != nil {
		return Score{}, err
	}
	yTrue, err := LabelsFromProbs(target)
	if err != nil {
		return Score{}, err
	}

	c := NewConfusion(int(prob.MustSize()[1]))
	if err := c.Add(yTrue, yPred); err != nil {
		return Score{}, err
	}

	return c.Score(policy)
}
