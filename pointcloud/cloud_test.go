package pointcloud

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/yanioaioan/swooz/spatialmath"
	"github.com/yanioaioan/swooz/utils"
)

func makeLine(n int, colored bool) *Cloud {
	c := NewWithPrealloc(n, colored)
	for i := 0; i < n; i++ {
		p := r3.Vector{X: float64(i), Y: 2 * float64(i), Z: 1}
		if colored {
			_ = c.AppendColored(p, color.NRGBA{uint8(i), 0, 0, 255})
		} else {
			_ = c.Append(p)
		}
	}
	return c
}

func TestAccessorsBoundsChecked(t *testing.T) {
	c := makeLine(3, true)
	p, err := c.Point(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 1})

	_, err = c.Point(3)
	test.That(t, errors.Is(err, ErrIndexOutOfRange), test.ShouldBeTrue)
	_, err = c.Point(-1)
	test.That(t, errors.Is(err, ErrIndexOutOfRange), test.ShouldBeTrue)
	_, err = c.Color(5)
	test.That(t, errors.Is(err, ErrIndexOutOfRange), test.ShouldBeTrue)

	_, err = makeLine(2, false).Color(0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorInvariant(t *testing.T) {
	c := makeLine(2, false)
	test.That(t, c.AppendColored(r3.Vector{}, color.NRGBA{}), test.ShouldEqual, ErrColorMismatch)
	colored := makeLine(2, true)
	test.That(t, colored.Append(r3.Vector{}), test.ShouldEqual, ErrColorMismatch)

	colored.Union(makeLine(3, true))
	test.That(t, colored.Size(), test.ShouldEqual, 5)
	test.That(t, len(colored.Colors()), test.ShouldEqual, 5)

	colored.Union(makeLine(1, false))
	test.That(t, colored.Size(), test.ShouldEqual, 6)
	test.That(t, colored.HasColor(), test.ShouldBeFalse)

	empty := New()
	empty.Union(makeLine(4, true))
	test.That(t, empty.HasColor(), test.ShouldBeTrue)
	test.That(t, len(empty.Colors()), test.ShouldEqual, empty.Size())
}

func TestPart(t *testing.T) {
	c := makeLine(10, true)
	part, err := c.Part(2, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, part.Size(), test.ShouldEqual, 3)
	first, _ := part.Point(0)
	test.That(t, first.X, test.ShouldEqual, 2.0)
	col, _ := part.Color(2)
	test.That(t, col.R, test.ShouldEqual, uint8(4))

	_, err = c.Part(5, 11)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = c.Part(6, 5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReduce(t *testing.T) {
	c := makeLine(10, true)
	r, err := c.Reduce(0.2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Size(), test.ShouldEqual, 2)
	p0, _ := r.Point(0)
	p1, _ := r.Point(1)
	test.That(t, p0.X, test.ShouldEqual, 0.0)
	test.That(t, p1.X, test.ShouldEqual, 5.0)
	test.That(t, len(r.Colors()), test.ShouldEqual, 2)

	r, err = c.Reduce(0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Size(), test.ShouldEqual, 3)

	again, _ := c.Reduce(0.25)
	test.That(t, again.Points(), test.ShouldResemble, r.Points())

	full, err := c.Reduce(1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, full.Size(), test.ShouldEqual, 10)

	_, err = c.Reduce(0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformAndBoundingBox(t *testing.T) {
	c := makeLine(3, false)
	moved := c.Transform(spatialmath.NewRigidMotion(spatialmath.EulerAngles{}, r3.Vector{X: 1, Y: -1}))
	test.That(t, c.Points()[0], test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, moved.Points()[0], test.ShouldResemble, r3.Vector{X: 1, Y: -1, Z: 1})

	bb := moved.BoundingBox()
	test.That(t, bb.Min, test.ShouldResemble, r3.Vector{X: 1, Y: -1, Z: 1})
	test.That(t, bb.Max, test.ShouldResemble, r3.Vector{X: 3, Y: 3, Z: 1})
	test.That(t, bb.Center(), test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 1})
	test.That(t, bb.Contains(r3.Vector{X: 2, Y: 0, Z: 1}), test.ShouldBeTrue)
	test.That(t, New().BoundingBox().Empty(), test.ShouldBeTrue)
	test.That(t, moved.Centroid(), test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 1})
}

func TestSquareDistance(t *testing.T) {
	ref := makeLine(20, false)
	test.That(t, SquareDistance(ref, ref, 0.1), test.ShouldEqual, 0.0)

	shifted := ref.Transform(spatialmath.NewRigidMotion(spatialmath.EulerAngles{}, r3.Vector{Z: 0.05}))
	test.That(t, SquareDistance(ref, shifted, 0.1), test.ShouldAlmostEqual, 0.0025, 1e-12)

	far := ref.Transform(spatialmath.NewRigidMotion(spatialmath.EulerAngles{}, r3.Vector{Z: 3}))
	test.That(t, SquareDistance(ref, far, 0.1), test.ShouldAlmostEqual, 0.01, 1e-12)

	test.That(t, math.IsInf(SquareDistance(New(), ref, 0.1), 1), test.ShouldBeTrue)
}

func TestSquareDistanceIndependentOfParallelism(t *testing.T) {
	ref := New()
	target := New()
	for i := 0; i < 5000; i++ {
		a := float64(i)
		test.That(t, ref.Append(r3.Vector{X: math.Sin(a), Y: math.Cos(1.7 * a), Z: 0.001 * a}), test.ShouldBeNil)
		test.That(t, target.Append(r3.Vector{X: math.Sin(a + 0.3), Y: math.Cos(1.7*a + 0.1), Z: 0.001*a + 0.01}), test.ShouldBeNil)
	}

	prev := utils.ParallelFactor
	defer func() { utils.ParallelFactor = prev }()
	var scores []float64
	for _, factor := range []int{1, 3, 7, 16} {
		utils.ParallelFactor = factor
		scores = append(scores, SquareDistance(ref, target, 0.5))
	}
	for _, score := range scores[1:] {
		test.That(t, score, test.ShouldEqual, scores[0])
	}
}

func TestAccumulationSizeMatchesCounts(t *testing.T) {
	acc := NewAccumulation()
	test.That(t, acc.Size(), test.ShouldEqual, 0)
	for _, n := range []int{5, 0, 12, 7} {
		acc.Add(makeLine(n, true))
		sum := 0
		for _, c := range acc.Counts() {
			sum += c
		}
		test.That(t, acc.Size(), test.ShouldEqual, sum)
		test.That(t, acc.Merged().Size(), test.ShouldEqual, sum)
	}
	test.That(t, acc.Counts(), test.ShouldResemble, []int{5, 0, 12, 7})
	test.That(t, acc.Merged().HasColor(), test.ShouldBeTrue)
	test.That(t, acc.BoundingBox().Max.X, test.ShouldEqual, 11.0)

	acc.Reset()
	test.That(t, acc.NumFrames(), test.ShouldEqual, 0)
	test.That(t, acc.Size(), test.ShouldEqual, 0)
}

func TestPCDRoundTrip(t *testing.T) {
	for _, pcdType := range []PCDType{PCDAscii, PCDBinary} {
		for _, colored := range []bool{true, false} {
			c := makeLine(6, colored)
			var buf bytes.Buffer
			test.That(t, ToPCD(c, &buf, pcdType), test.ShouldBeNil)
			back, err := ReadPCD(&buf)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, back.Size(), test.ShouldEqual, 6)
			test.That(t, back.HasColor(), test.ShouldEqual, colored)
			p, _ := back.Point(5)
			test.That(t, p.Y, test.ShouldAlmostEqual, 10, 1e-5)
			if colored {
				col, _ := back.Color(3)
				test.That(t, col, test.ShouldResemble, color.NRGBA{3, 0, 0, 255})
			}
		}
	}

	_, err := ReadPCD(bytes.NewBufferString("VERSION .7\nFIELDS x y z normal\n"))
	test.That(t, err, test.ShouldNotBeNil)
}
