package utils

import (
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallelCoversEveryItem(t *testing.T) {
	for _, total := range []int{1, 3, 17, 1000} {
		seen := make([]int32, total)
		groups := make([]int, NumGroups(total))
		GroupWorkParallel(total, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			count := 0
			return func(memberNum, workNum int) {
					atomic.AddInt32(&seen[workNum], 1)
					count++
				}, func() {
					groups[groupNum] = count
				}
		})
		sum := 0
		for _, c := range groups {
			sum += c
		}
		test.That(t, sum, test.ShouldEqual, total)
		for _, s := range seen {
			test.That(t, s, test.ShouldEqual, int32(1))
		}
	}
}

func TestParallelForEachEmpty(t *testing.T) {
	called := false
	ParallelForEach(0, func(i int) { called = true })
	test.That(t, called, test.ShouldBeFalse)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(2, 0, 1), test.ShouldEqual, 1.0)
	test.That(t, Clamp(-2, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, ClampInt(5, 0, 3), test.ShouldEqual, 3)
	test.That(t, ClampInt(-1, 0, 3), test.ShouldEqual, 0)
	test.That(t, Float64AlmostEqual(1, 1.0005, 1e-3), test.ShouldBeTrue)
}

func TestGroupRange(t *testing.T) {
	prev := 0
	for g := 0; g < 3; g++ {
		from, to := groupRange(10, 3, g)
		test.That(t, from, test.ShouldEqual, prev)
		prev = to
	}
	test.That(t, prev, test.ShouldEqual, 10)
	from, to := groupRange(10, 3, 0)
	test.That(t, to-from, test.ShouldEqual, 4)
	test.That(t, defaultParallelFactor(0), test.ShouldEqual, 1)
	test.That(t, defaultParallelFactor(64), test.ShouldEqual, 16)
}
