package rimage

// ExpandContours grows the filled region by amount passes. In each pass an empty cell with at
// least connex filled 8-neighbors takes the mean of those neighbors. A connex below 1 counts
// as 1.
func (r *Raster) ExpandContours(amount, connex int) *Raster {
	connex = max(connex, 1)
	src := r.Clone()
	for pass := 0; pass < amount; pass++ {
		dst := src.Clone()
		changed := false
		for y := 0; y < src.Height(); y++ {
			for x := 0; x < src.Width(); x++ {
				if src.data.At(y, x) > 0 {
					continue
				}
				var sum float64
				n := 0
				for _, d := range neighbors8 {
					if v := src.At(x+d[0], y+d[1]); v > 0 {
						sum += v
						n++
					}
				}
				if n >= connex {
					dst.data.Set(y, x, sum/float64(n))
					changed = true
				}
			}
		}
		src = dst
		if !changed {
			break
		}
	}
	return src
}

// EraseContours shrinks the filled region by amount passes. In each pass a filled cell with at
// least connex empty 8-neighbors is emptied. Cells beyond the raster edge count as empty. A
// connex below 1 counts as 1.
func (r *Raster) EraseContours(amount, connex int) *Raster {
	connex = max(connex, 1)
	src := r.Clone()
	for pass := 0; pass < amount; pass++ {
		dst := src.Clone()
		changed := false
		for y := 0; y < src.Height(); y++ {
			for x := 0; x < src.Width(); x++ {
				if src.data.At(y, x) <= 0 {
					continue
				}
				n := 0
				for _, d := range neighbors8 {
					if src.At(x+d[0], y+d[1]) <= 0 {
						n++
					}
				}
				if n >= connex {
					dst.data.Set(y, x, 0)
					changed = true
				}
			}
		}
		src = dst
		if !changed {
			break
		}
	}
	return src
}
