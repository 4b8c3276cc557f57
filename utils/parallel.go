// Package utils contains small helpers shared by the image and geometry packages.
package utils

import (
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor caps the number of goroutines a parallel loop uses. Tests may lower it.
var ParallelFactor = defaultParallelFactor(runtime.GOMAXPROCS(0))

// defaultParallelFactor uses every processor on small machines and a quarter of them past 32.
func defaultParallelFactor(procs int) int {
	if procs <= 0 {
		return 1
	}
	if procs > 32 {
		return procs / 4
	}
	return procs
}

type (
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs once a group has processed all its members.
	GroupWorkDoneFunc func()
	// GroupWorkFunc prepares the work of the group covering [from, to).
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// NumGroups returns how many groups GroupWorkParallel will split totalSize items into.
func NumGroups(totalSize int) int {
	return max(min(totalSize, ParallelFactor), 1)
}

// groupRange returns the items of group g when totalSize items are split into numGroups
// contiguous ranges. The first totalSize%numGroups groups get one extra item.
func groupRange(totalSize, numGroups, g int) (int, int) {
	size, extra := totalSize/numGroups, totalSize%numGroups
	from := g*size + min(g, extra)
	to := from + size
	if g < extra {
		to++
	}
	return from, to
}

// GroupWorkParallel splits totalSize work items into contiguous ranges, one goroutine per range,
// and waits for all of them. Group numbers are stable so callers may write per-group results
// into a slice of length NumGroups(totalSize) and reduce them in order afterwards.
func GroupWorkParallel(totalSize int, groupWork GroupWorkFunc) {
	if totalSize <= 0 {
		return
	}
	numGroups := NumGroups(totalSize)
	var wg sync.WaitGroup
	wg.Add(numGroups)
	for g := 0; g < numGroups; g++ {
		g := g
		from, to := groupRange(totalSize, numGroups, g)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			memberWork, done := groupWork(g, to-from, from, to)
			if memberWork != nil {
				for i := from; i < to; i++ {
					memberWork(i-from, i)
				}
			}
			if done != nil {
				done()
			}
		})
	}
	wg.Wait()
}

// ParallelForEach calls f for every index in [0, n) spread over ParallelFactor goroutines.
func ParallelForEach(n int, f func(i int)) {
	GroupWorkParallel(n, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		return func(memberNum, workNum int) { f(workNum) }, nil
	})
}
