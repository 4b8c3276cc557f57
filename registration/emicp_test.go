package registration

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/yanioaioan/swooz/logging"
	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/spatialmath"
)

// makeSurface samples a curved patch with an off-center bump so that no rigid motion other than
// the identity maps it onto itself.
func makeSurface(step float64) *pointcloud.Cloud {
	c := pointcloud.New()
	for x := -0.05; x <= 0.05+1e-9; x += step {
		for y := -0.06; y <= 0.06+1e-9; y += step {
			bump := 0.02 * math.Exp(-((x-0.01)*(x-0.01)+(y+0.015)*(y+0.015))/0.0003)
			z := 0.8 + 3*x*x + 1.5*y*y + 0.5*x*y - bump
			_ = c.Append(r3.Vector{X: x, Y: y, Z: z})
		}
	}
	return c
}

func TestAlignRecoversKnownMotion(t *testing.T) {
	logger := logging.NewTestLogger(t)
	engine, err := NewEngine(DefaultConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	reference := makeSurface(0.005)
	truth := spatialmath.NewRigidMotion(
		spatialmath.EulerAngles{Roll: 0.03, Pitch: -0.04, Yaw: 0.02},
		r3.Vector{X: 0.004, Y: -0.003, Z: 0.006},
	)
	target := reference.Transform(truth.Inverse())

	res, err := engine.Align(reference, target, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Iterations, test.ShouldBeGreaterThan, 1)
	test.That(t, res.Converged, test.ShouldBeTrue)
	test.That(t, res.Motion.AlmostEqual(truth, 5e-3), test.ShouldBeTrue)

	aligned := res.TransformedCloud(target)
	test.That(t, pointcloud.SquareDistance(reference, aligned, 0.1), test.ShouldBeLessThan, 1e-6)
	test.That(t, pointcloud.SquareDistance(reference, target, 0.1), test.ShouldBeGreaterThan, 1e-5)
}

func TestAlignWithDownscaling(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	reference := makeSurface(0.004)
	truth := spatialmath.NewRigidMotion(spatialmath.EulerAngles{Yaw: 0.03}, r3.Vector{X: -0.005})
	target := reference.Transform(truth.Inverse())

	res, err := engine.Align(reference, target, 0.5, 0.5)
	test.That(t, err, test.ShouldBeNil)
	aligned := res.TransformedCloud(target)
	test.That(t, aligned.Size(), test.ShouldEqual, target.Size())
	test.That(t, pointcloud.SquareDistance(reference, aligned, 0.1), test.ShouldBeLessThan, 4e-6)
}

func TestAlignIsDeterministic(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	reference := makeSurface(0.01)
	target := reference.Transform(spatialmath.NewRigidMotion(spatialmath.EulerAngles{Roll: 0.02}, r3.Vector{Y: 0.003}))

	first, err := engine.Align(reference, target, 0.7, 0.7)
	test.That(t, err, test.ShouldBeNil)
	second, err := engine.Align(reference, target, 0.7, 0.7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Iterations, test.ShouldEqual, second.Iterations)
	test.That(t, first.Motion.Translation, test.ShouldResemble, second.Motion.Translation)
	for i := 0; i < 3; i++ {
		test.That(t, first.Motion.Matrix().Row(i), test.ShouldResemble, second.Motion.Matrix().Row(i))
	}
}

func TestAlignDegenerate(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = engine.Align(pointcloud.New(), makeSurface(0.01), 1, 1)
	test.That(t, errors.Is(err, ErrDegenerate), test.ShouldBeTrue)

	_, err = engine.Align(makeSurface(0.01), makeSurface(0.01), 0, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate(), test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.AnnealingFactor = 1
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.MinSigma2 = 1
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.MaxIterations = 0
	_, err := NewEngine(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
