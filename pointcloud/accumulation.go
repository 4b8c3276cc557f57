package pointcloud

import (
	"github.com/samber/lo"
)

// Accumulation is the ordered list of accepted per-frame clouds. Each frame stays its own
// cloud, so per-frame projection never has to re-slice a flattened union.
type Accumulation struct {
	frames []*Cloud
}

// NewAccumulation returns an empty accumulation.
func NewAccumulation() *Accumulation {
	return &Accumulation{}
}

// Add appends an accepted frame cloud. The accumulation takes ownership of c.
func (a *Accumulation) Add(c *Cloud) {
	a.frames = append(a.frames, c)
}

// NumFrames returns the number of accepted frames.
func (a *Accumulation) NumFrames() int {
	return len(a.frames)
}

// Frames returns the per-frame clouds in acceptance order.
func (a *Accumulation) Frames() []*Cloud {
	return a.frames
}

// Counts returns the point count of every frame in acceptance order.
func (a *Accumulation) Counts() []int {
	return lo.Map(a.frames, func(c *Cloud, _ int) int { return c.Size() })
}

// Size returns the total number of accumulated points, always the sum of Counts.
func (a *Accumulation) Size() int {
	return lo.Sum(a.Counts())
}

// Merged returns the union of every frame as a single cloud.
func (a *Accumulation) Merged() *Cloud {
	out := NewWithPrealloc(a.Size(), false)
	for _, f := range a.frames {
		out.Union(f)
	}
	return out
}

// BoundingBox returns the extents of the whole accumulation.
func (a *Accumulation) BoundingBox() BoundingBox {
	bb := NewBoundingBox()
	for _, f := range a.frames {
		bb.Merge(f.BoundingBox())
	}
	return bb
}

// Reset drops every frame.
func (a *Accumulation) Reset() {
	a.frames = nil
}
