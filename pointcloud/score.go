package pointcloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/yanioaioan/swooz/utils"
)

// NearestNeighbors answers nearest point queries against a fixed cloud.
type NearestNeighbors struct {
	tree *kdtree.Tree
	size int
}

// NewNearestNeighbors indexes the points of reference.
func NewNearestNeighbors(reference *Cloud) *NearestNeighbors {
	pts := make(kdtree.Points, reference.Size())
	for i, p := range reference.points {
		pts[i] = kdtree.Point{p.X, p.Y, p.Z}
	}
	nn := &NearestNeighbors{size: len(pts)}
	if len(pts) > 0 {
		nn.tree = kdtree.New(pts, false)
	}
	return nn
}

// SquaredDistance returns the squared distance from (x, y, z) to the closest indexed point,
// +Inf when nothing is indexed.
func (nn *NearestNeighbors) SquaredDistance(x, y, z float64) float64 {
	if nn.tree == nil {
		return math.Inf(1)
	}
	_, d2 := nn.tree.Nearest(kdtree.Point{x, y, z})
	return d2
}

// scoreChunkSize is the number of target points summed together before the partial sums are
// added in chunk order. The grouping never depends on the machine.
const scoreChunkSize = 1024

// SquareDistance scores how well target overlays reference: the mean over every target point
// of the squared nearest-neighbour distance to reference, with each distance first capped at
// ceiling. Every target point contributes, so the score does not depend on decimation of
// target. Empty inputs score +Inf.
func SquareDistance(reference, target *Cloud, ceiling float64) float64 {
	if reference.Size() == 0 || target.Size() == 0 {
		return math.Inf(1)
	}
	nn := NewNearestNeighbors(reference)
	ceiling2 := ceiling * ceiling

	n := target.Size()
	partial := make([]float64, (n+scoreChunkSize-1)/scoreChunkSize)
	utils.ParallelForEach(len(partial), func(chunk int) {
		var sum float64
		for _, p := range target.points[chunk*scoreChunkSize : min((chunk+1)*scoreChunkSize, n)] {
			sum += math.Min(nn.SquaredDistance(p.X, p.Y, p.Z), ceiling2)
		}
		partial[chunk] = sum
	})

	var total float64
	for _, s := range partial {
		total += s
	}
	return total / float64(target.Size())
}
