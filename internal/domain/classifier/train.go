package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/stats"
)

// Training defaults.
const (
	DefaultC          = 0.018
	defaultIterations = 3000
	defaultHoldout    = 0.2
	defaultSeed       = 42
	plattIterations   = 100
)

// TrainOption configures Train.
type TrainOption func(*trainConfig)

type trainConfig struct {
	c          float64
	iterations int
	holdout    float64
	seed       int64
	balanced   bool
}

// WithC sets the inverse L2 regularization strength.
func WithC(c float64) TrainOption {
	return func(t *trainConfig) {
		if c > 0 {
			t.c = c
		}
	}
}

// WithIterations caps the optimizer iterations of the logistic fit.
func WithIterations(n int) TrainOption {
	return func(t *trainConfig) {
		if n > 0 {
			t.iterations = n
		}
	}
}

// WithHoldout sets the fraction of each class kept out of training for the report.
// Zero trains on everything.
func WithHoldout(fraction float64) TrainOption {
	return func(t *trainConfig) {
		if fraction >= 0 && fraction < 1 {
			t.holdout = fraction
		}
	}
}

// WithSeed fixes the holdout split.
func WithSeed(seed int64) TrainOption {
	return func(t *trainConfig) { t.seed = seed }
}

// WithBalancedWeights toggles inverse class frequency sample weights.
func WithBalancedWeights(on bool) TrainOption {
	return func(t *trainConfig) { t.balanced = on }
}

type sample struct {
	x []float64
	y float64
}

// Train fits scaler, logistic regression and sigmoid calibration. Vectors
// with an undefined column or an unknown label are dropped.
func Train(vectors []model.FeatureVector, opts ...TrainOption) (*Model, error) {
	cfg := trainConfig{c: DefaultC, iterations: defaultIterations, holdout: defaultHoldout, seed: defaultSeed, balanced: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	report := Report{}
	var pos, neg []sample
	for i := range vectors {
		fv := &vectors[i]
		x, ok := fv.Floats()
		if !ok || fv.Label == model.LabelUnknown {
			report.Dropped++
			continue
		}
		if fv.Label == model.LabelPositive {
			pos = append(pos, sample{x: x, y: 1})
		} else {
			neg = append(neg, sample{x: x, y: 0})
		}
	}
	report.Samples = len(pos) + len(neg)
	report.Positives, report.Negatives = len(pos), len(neg)
	if report.Samples == 0 {
		return nil, ErrNoTrainingData
	}
	if len(pos) == 0 || len(neg) == 0 {
		return nil, ErrSingleClass
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	trainPos, testPos := split(pos, cfg.holdout, rng)
	trainNeg, testNeg := split(neg, cfg.holdout, rng)
	train := append(trainPos, trainNeg...)
	test := append(testPos, testNeg...)

	scaler := fitScaler(train)
	weights := sampleWeights(train, len(trainPos), cfg.balanced)
	logit, err := fitLogistic(train, weights, scaler, cfg)
	if err != nil {
		return nil, err
	}

	dec := make([]float64, len(train))
	for i, s := range train {
		dec[i] = decision(s.x, scaler, logit)
	}
	calib, err := fitPlatt(dec, train, len(trainPos), len(trainNeg))
	if err != nil {
		return nil, err
	}

	art := Artifact{
		FeatureOrder: model.FeatureNames(),
		Classes:      []int{0, 1},
		Scaler:       scaler,
		Logistic:     logit,
		Calibration:  calib,
	}
	eval := test
	if len(eval) == 0 {
		eval = train
	}
	report.Holdout = len(test)
	report.Accuracy, report.LogLoss = evaluate(eval, art)
	art.Report = &report
	return New(art)
}

// split keeps a deterministic fraction of samples aside. At least one sample
// of the class stays in training.
func split(xs []sample, fraction float64, rng *rand.Rand) (train, test []sample) {
	idx := rng.Perm(len(xs))
	k := int(math.Floor(fraction * float64(len(xs))))
	if k >= len(xs) {
		k = len(xs) - 1
	}
	for i, j := range idx {
		if i < k {
			test = append(test, xs[j])
		} else {
			train = append(train, xs[j])
		}
	}
	return train, test
}

func fitScaler(train []sample) Scaler {
	d := len(train[0].x)
	s := Scaler{Mean: make([]float64, d), Scale: make([]float64, d)}
	col := make([]float64, len(train))
	for j := 0; j < d; j++ {
		for i, t := range train {
			col[i] = t.x[j]
		}
		m, _ := stats.CentralMoments(col)
		s.Mean[j] = m.Mean
		s.Scale[j] = m.Std()
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s
}

func sampleWeights(train []sample, positives int, balanced bool) []float64 {
	w := make([]float64, len(train))
	n := float64(len(train))
	for i, s := range train {
		w[i] = 1
		if !balanced {
			continue
		}
		if s.y == 1 {
			w[i] = n / (2 * float64(positives))
		} else {
			w[i] = n / (2 * float64(len(train)-positives))
		}
	}
	return w
}

// fitLogistic minimizes sum(w_i * logloss_i) + ||coef||^2 / (2C) with L-BFGS
// on standardized inputs. The objective is divided by the total weight so the
// gradient threshold does not depend on the sample count.
func fitLogistic(train []sample, weights []float64, sc Scaler, cfg trainConfig) (Logistic, error) {
	d := len(sc.Mean)
	z := make([][]float64, len(train))
	for i, s := range train {
		z[i] = make([]float64, d)
		for j, v := range s.x {
			z[i][j] = (v - sc.Mean[j]) / sc.Scale[j]
		}
	}
	wsum := floats.Sum(weights)
	reg := 1 / (cfg.c * wsum)

	// x holds the coefficients followed by the intercept.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			coef, b := x[:d], x[d]
			var loss float64
			for i, zi := range z {
				u := floats.Dot(coef, zi) + b
				if train[i].y == 1 {
					loss += weights[i] * softplus(-u)
				} else {
					loss += weights[i] * softplus(u)
				}
			}
			return loss/wsum + 0.5*reg*floats.Dot(coef, coef)
		},
		Grad: func(grad, x []float64) {
			coef, b := x[:d], x[d]
			clear(grad)
			for i, zi := range z {
				r := weights[i] * (sigmoid(floats.Dot(coef, zi)+b) - train[i].y) / wsum
				floats.AddScaled(grad[:d], r, zi)
				grad[d] += r
			}
			floats.AddScaled(grad[:d], reg, coef)
		},
	}
	x, err := minimize(problem, make([]float64, d+1), cfg.iterations, 1e-8)
	if err != nil {
		return Logistic{}, fmt.Errorf("fit logistic: %w", err)
	}
	return Logistic{Coef: x[:d], Intercept: x[d], C: cfg.c}, nil
}

// fitPlatt fits p = 1/(1+exp(a*f+b)) on Platt's smoothed targets.
func fitPlatt(dec []float64, train []sample, positives, negatives int) (Calibration, error) {
	hi := (float64(positives) + 1) / (float64(positives) + 2)
	lo := 1 / (float64(negatives) + 2)
	t := make([]float64, len(train))
	for i, s := range train {
		if s.y == 1 {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			var sum float64
			for i, f := range dec {
				// p = sigmoid(-(a f + b)); log loss written with softplus for stability
				u := x[0]*f + x[1]
				sum += t[i]*softplus(u) + (1-t[i])*softplus(-u)
			}
			return sum
		},
		Grad: func(grad, x []float64) {
			grad[0], grad[1] = 0, 0
			for i, f := range dec {
				r := sigmoid(x[0]*f+x[1]) - (1 - t[i])
				grad[0] += r * f
				grad[1] += r
			}
		},
	}
	x0 := []float64{0, math.Log((float64(negatives) + 1) / (float64(positives) + 1))}
	x, err := minimize(problem, x0, plattIterations, 1e-9)
	if err != nil {
		return Calibration{}, fmt.Errorf("fit calibration: %w", err)
	}
	return Calibration{A: x[0], B: x[1]}, nil
}

// minimize runs L-BFGS from x0. A line search that stalls next to the optimum
// still yields a usable location, so only a missing or non-finite one fails.
func minimize(p optimize.Problem, x0 []float64, iterations int, gradTol float64) ([]float64, error) {
	settings := &optimize.Settings{
		MajorIterations:   iterations,
		GradientThreshold: gradTol,
	}
	res, err := optimize.Minimize(p, x0, settings, &optimize.LBFGS{})
	if res == nil || floats.HasNaN(res.X) || math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		if err == nil {
			err = ErrNotConverged
		}
		return nil, err
	}
	return res.X, nil
}

func softplus(u float64) float64 {
	if u > 0 {
		return u + math.Log1p(math.Exp(-u))
	}
	return math.Log1p(math.Exp(u))
}

func evaluate(eval []sample, art Artifact) (accuracy, logLoss float64) {
	const clip = 1e-15
	var correct int
	for _, s := range eval {
		p := art.Calibration.apply(decision(s.x, art.Scaler, art.Logistic))
		if (p >= 0.5) == (s.y == 1) {
			correct++
		}
		p = math.Min(1-clip, math.Max(clip, p))
		if s.y == 1 {
			logLoss -= math.Log(p)
		} else {
			logLoss -= math.Log(1 - p)
		}
	}
	n := float64(len(eval))
	return float64(correct) / n, logLoss / n
}
