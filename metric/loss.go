package metric

import (
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// probEpsilon is the Keras backend epsilon used to clip probabilities.
const probEpsilon = 1e-7

// CategoricalCrossEntropy calculates mean over pixels of
// -sum_c target_c * log(prob_c). prob and target are [B C H W], prob already
// softmax-normalized along C. prob is clipped to [eps, 1-eps] as in Keras.
func CategoricalCrossEntropy(prob, target *ts.Tensor) *ts.Tensor {
	pclip := prob.MustClip(ts.FloatScalar(probEpsilon), ts.FloatScalar(1-probEpsilon), false)
	logp := pclip.MustLog(true)

	// t * logp, summed over channels: [B H W]
	tlogp := target.MustMul(logp, false)
	logp.MustDrop()
	perPixel := tlogp.MustSum1([]int64{1}, false, gotch.Double, true)

	loss := perPixel.MustMean(gotch.Double, true).MustMul1(ts.FloatScalar(-1), true)

	return loss
}
