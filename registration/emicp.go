// Package registration computes rigid alignments between point clouds with EM-ICP, an
// iterative closest point variant that weights every reference point by a Gaussian of its
// distance and anneals the Gaussian width over the iterations.
package registration

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/yanioaioan/swooz/logging"
	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/spatialmath"
	"github.com/yanioaioan/swooz/utils"
)

// ErrDegenerate is returned when the clouds share no usable correspondence.
var ErrDegenerate = errors.New("alignment has no usable correspondences")

// Config holds the EM-ICP tuning values. Distances are squared and in meters.
type Config struct {
	InitialSigma2    float64 `json:"initial_sigma2"`
	MinSigma2        float64 `json:"min_sigma2"`
	AnnealingFactor  float64 `json:"annealing_factor"`
	OutlierDistance2 float64 `json:"outlier_distance2"`
	MaxIterations    int     `json:"max_iterations"`
	Tolerance        float64 `json:"tolerance"`
}

// DefaultConfig returns the values tuned for head-sized clouds captured at about a meter.
func DefaultConfig() Config {
	return Config{
		InitialSigma2:    0.01,
		MinSigma2:        0.000005,
		AnnealingFactor:  0.9,
		OutlierDistance2: 0.01,
		MaxIterations:    100,
		Tolerance:        1e-7,
	}
}

// Validate ensures all parts of the config are usable.
func (cfg Config) Validate() error {
	switch {
	case cfg.InitialSigma2 <= 0:
		return errors.New("initial_sigma2 must be positive")
	case cfg.MinSigma2 <= 0 || cfg.MinSigma2 > cfg.InitialSigma2:
		return errors.New("min_sigma2 must be positive and not above initial_sigma2")
	case cfg.AnnealingFactor <= 0 || cfg.AnnealingFactor >= 1:
		return errors.New("annealing_factor must be in (0, 1)")
	case cfg.OutlierDistance2 < 0:
		return errors.New("outlier_distance2 cannot be negative")
	case cfg.MaxIterations < 1:
		return errors.New("max_iterations must be at least 1")
	case cfg.Tolerance < 0:
		return errors.New("tolerance cannot be negative")
	}
	return nil
}

// Result is the outcome of one alignment.
type Result struct {
	// Motion maps the target cloud onto the reference cloud.
	Motion     spatialmath.RigidMotion
	Iterations int
	// Converged is false when the iteration cap stopped the loop.
	Converged bool
	Sigma2    float64
}

// TransformedCloud applies the motion to a full resolution companion cloud.
func (r Result) TransformedCloud(cloud *pointcloud.Cloud) *pointcloud.Cloud {
	return cloud.Transform(r.Motion)
}

// Engine runs EM-ICP alignments. It holds no state between calls.
type Engine struct {
	cfg    Config
	logger logging.Logger
}

// NewEngine returns an engine for cfg.
func NewEngine(cfg Config, logger logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid registration config")
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Align computes the motion bringing target onto reference. Both clouds are first decimated by
// their downscale factor; the returned motion applies to the full resolution clouds.
func (e *Engine) Align(reference, target *pointcloud.Cloud, downscaleReference, downscaleTarget float64) (Result, error) {
	ref, err := reference.Reduce(downscaleReference)
	if err != nil {
		return Result{}, errors.Wrap(err, "reducing reference cloud")
	}
	tgt, err := target.Reduce(downscaleTarget)
	if err != nil {
		return Result{}, errors.Wrap(err, "reducing target cloud")
	}
	if ref.Size() == 0 || tgt.Size() == 0 {
		return Result{}, errors.Wrapf(ErrDegenerate, "reference has %d points, target has %d", ref.Size(), tgt.Size())
	}

	res, err := e.run(ref.Points(), tgt.Points())
	if err != nil {
		return Result{}, err
	}
	e.logger.Debugw("alignment done",
		"iterations", res.Iterations, "converged", res.Converged, "sigma2", res.Sigma2, "motion", res.Motion.String())
	return res, nil
}

// expectation holds, for one target point, the weighted mean of the reference points and the
// total weight given to that mean.
type expectation struct {
	mean   r3.Vector
	weight float64
}

func (e *Engine) run(ref, tgt []r3.Vector) (Result, error) {
	motion := spatialmath.IdentityMotion()
	sigma2 := e.cfg.InitialSigma2
	expectations := make([]expectation, len(tgt))

	res := Result{Motion: motion}
	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		rm := motion.Matrix()
		outlier := math.Exp(-e.cfg.OutlierDistance2 / sigma2)
		utils.ParallelForEach(len(tgt), func(i int) {
			expectations[i] = expect(ref, rm.Mul(tgt[i]).Add(motion.Translation), sigma2, outlier)
		})

		next, err := maximize(tgt, expectations)
		if err != nil {
			return Result{}, errors.Wrapf(err, "iteration %d, sigma2 %g", iter, sigma2)
		}
		update := motionDistance(motion, next)
		motion = next
		res = Result{Motion: motion, Iterations: iter, Sigma2: sigma2}

		if update < e.cfg.Tolerance {
			res.Converged = true
			break
		}
		sigma2 *= e.cfg.AnnealingFactor
		if sigma2 < e.cfg.MinSigma2 {
			res.Converged = true
			break
		}
	}
	return res, nil
}

// expect computes the soft correspondence of one transformed target point.
func expect(ref []r3.Vector, p r3.Vector, sigma2, outlier float64) expectation {
	var sum float64
	var weighted r3.Vector
	for _, y := range ref {
		a := math.Exp(-y.Sub(p).Norm2() / sigma2)
		sum += a
		weighted = weighted.Add(y.Mul(a))
	}
	if sum < 1e-300 {
		return expectation{}
	}
	return expectation{
		mean:   weighted.Mul(1 / sum),
		weight: sum / (sum + outlier),
	}
}

// maximize solves the weighted Procrustes problem between the original target points and their
// expected correspondences.
func maximize(tgt []r3.Vector, exps []expectation) (spatialmath.RigidMotion, error) {
	var total float64
	var xBar, mBar r3.Vector
	for i, ex := range exps {
		total += ex.weight
		xBar = xBar.Add(tgt[i].Mul(ex.weight))
		mBar = mBar.Add(ex.mean.Mul(ex.weight))
	}
	if total < 1e-12 {
		return spatialmath.RigidMotion{}, ErrDegenerate
	}
	xBar = xBar.Mul(1 / total)
	mBar = mBar.Mul(1 / total)

	h := mat.NewDense(3, 3, nil)
	for i, ex := range exps {
		if ex.weight == 0 {
			continue
		}
		x := tgt[i].Sub(xBar)
		m := ex.mean.Sub(mBar)
		xs := [3]float64{x.X, x.Y, x.Z}
		ms := [3]float64{m.X, m.Y, m.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+ex.weight*xs[r]*ms[c])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return spatialmath.RigidMotion{}, errors.New("svd factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := mat.NewDiagDense(3, []float64{1, 1, 1})
	if mat.Det(&vut) < 0 {
		d.SetDiag(2, -1)
	}
	var vd, r mat.Dense
	vd.Mul(&v, d)
	r.Mul(&vd, u.T())

	rm := spatialmath.NewRotationMatrixFromDense(&r)
	t := mBar.Sub(rm.Mul(xBar))
	return spatialmath.NewRigidMotionFromMatrix(rm, t), nil
}

// motionDistance is the Frobenius norm of the rotation change plus the translation change.
func motionDistance(a, b spatialmath.RigidMotion) float64 {
	ra, rb := a.Matrix(), b.Matrix()
	var sum float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := ra.At(i, j) - rb.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum) + a.Translation.Sub(b.Translation).Norm()
}
