package rimage

import "github.com/pkg/errors"

// KeepLargestComponent returns a copy where only the largest connected group of filled cells
// survives. connectivity is 4 or 8. On a tie the group reached first in row-major order wins.
func (r *Raster) KeepLargestComponent(connectivity int) (*Raster, error) {
	var offsets [][2]int
	switch connectivity {
	case 4:
		offsets = neighbors4[:]
	case 8:
		offsets = neighbors8[:]
	default:
		return nil, errors.Errorf("connectivity must be 4 or 8, got %d", connectivity)
	}

	w, h := r.Width(), r.Height()
	labels := make([]int, w*h)
	bestLabel, bestSize := 0, 0
	label := 0
	for start := 0; start < w*h; start++ {
		sx, sy := start%w, start/w
		if labels[start] != 0 || r.data.At(sy, sx) <= 0 {
			continue
		}
		label++
		size := 0
		labels[start] = label
		queue := []int{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			size++
			cx, cy := current%w, current/w
			for _, d := range offsets {
				nx, ny := cx+d[0], cy+d[1]
				if !r.In(nx, ny) {
					continue
				}
				nIdx := ny*w + nx
				if labels[nIdx] != 0 || r.data.At(ny, nx) <= 0 {
					continue
				}
				labels[nIdx] = label
				queue = append(queue, nIdx)
			}
		}
		if size > bestSize {
			bestLabel, bestSize = label, size
		}
	}

	out := r.Clone()
	for idx, l := range labels {
		if l != bestLabel {
			out.data.Set(idx/w, idx%w, 0)
		}
	}
	return out, nil
}
