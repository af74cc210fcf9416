package unet

import (
	"github.com/pkg/errors"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/xview2/metric"
)

// TrainConfig holds optimizer and metric settings.
type TrainConfig struct {
	LR       float64
	Momentum float64
	// Policy is how the xView2 metric treats damage classes with zero F1.
	Policy metric.ZeroDivision
}

// DefaultTrainConfig returns SGD with learning rate 0.01 and momentum 0.99.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LR:       0.01,
		Momentum: 0.99,
		Policy:   metric.ZeroDivisionZero,
	}
}

// Compiled binds a model to its optimizer, loss and metric.
type Compiled struct {
	Net    *UNet
	Opt    *nn.Optimizer
	Policy metric.ZeroDivision
}

// BatchResult is loss and xView2 score of one batch.
type BatchResult struct {
	Loss  float64
	Score metric.Score
	// ScoreErr is set when the metric is undefined for the batch. Loss is
	// still valid.
	ScoreErr error
}

// Compile creates the SGD optimizer over all variables of vs.
func Compile(vs *nn.VarStore, net *UNet, cfg TrainConfig) (*Compiled, error) {
	if cfg.LR <= 0 {
		return nil, errors.Errorf("invalid learning rate %v", cfg.LR)
	}
	if cfg.Momentum < 0 || cfg.Momentum >= 1 {
		return nil, errors.Errorf("invalid momentum %v", cfg.Momentum)
	}

	sgd := nn.DefaultSGDConfig()
	sgd.Momentum = cfg.Momentum
	opt, err := sgd.Build(vs, cfg.LR)
	if err != nil {
		return nil, errors.Wrap(err, "building SGD optimizer")
	}

	return &Compiled{Net: net, Opt: opt, Policy: cfg.Policy}, nil
}

// TrainBatch runs one forward, backward and optimizer step.
// target is one-hot [B classes H W].
func (c *Compiled) TrainBatch(x, target *ts.Tensor) (BatchResult, error) {
	prob, err := c.Net.Forward(x, true)
	if err != nil {
		return BatchResult{}, err
	}
	if err := checkTarget(prob, target); err != nil {
		prob.MustDrop()
		return BatchResult{}, err
	}

	loss := metric.CategoricalCrossEntropy(prob, target)
	c.Opt.BackwardStep(loss)
	res := c.result(prob, target, loss)
	loss.MustDrop()
	prob.MustDrop()

	return res, nil
}

// EvaluateBatch computes loss and score without gradients.
func (c *Compiled) EvaluateBatch(x, target *ts.Tensor) (BatchResult, error) {
	var (
		prob *ts.Tensor
		err  error
	)
	ts.NoGrad(func() {
		prob, err = c.Net.Forward(x, false)
	})
	if err != nil {
		return BatchResult{}, err
	}
	defer prob.MustDrop()
	if err := checkTarget(prob, target); err != nil {
		return BatchResult{}, err
	}

	loss := metric.CategoricalCrossEntropy(prob, target)
	res := c.result(prob, target, loss)
	loss.MustDrop()

	return res, nil
}

func (c *Compiled) result(prob, target, loss *ts.Tensor) BatchResult {
	res := BatchResult{Loss: loss.Float64Values()[0]}
	p := prob.MustTo(gotch.CPU, false)
	t := target.MustTo(gotch.CPU, false)
	res.Score, res.ScoreErr = metric.XView2Tensor(p, t, c.Policy)
	p.MustDrop()
	t.MustDrop()

	return res
}

func checkTarget(prob, target *ts.Tensor) error {
	ps := prob.MustSize()
	tsz := target.MustSize()
	if len(ps) != len(tsz) {
		return &ShapeError{Stage: "target", Got: tsz, Want: ps}
	}
	for i := range ps {
		if ps[i] != tsz[i] {
			return &ShapeError{Stage: "target", Got: tsz, Want: ps}
		}
	}

	return nil
}
