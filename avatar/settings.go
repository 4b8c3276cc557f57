package avatar

import (
	"image"

	"github.com/yanioaioan/swooz/rimage"
)

// Config returns a snapshot of the configuration.
func (b *Builder) Config() Config {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.cfg
}

// SetConfig replaces the whole configuration once validated.
func (b *Builder) SetConfig(cfg Config) error {
	if err := cfg.Validate("avatar"); err != nil {
		return err
	}
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	b.cfg = cfg
	return nil
}

func (b *Builder) update(f func(cfg *Config)) {
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	f(&b.cfg)
}

// SetBackgroundDistance sets how far behind the foreground a pixel is still kept, in meters.
func (b *Builder) SetBackgroundDistance(distance float64) {
	b.update(func(cfg *Config) { cfg.BackgroundDistance = distance })
}

// SetDepthCloud sets the depth of the face behind the nose tip, in meters.
func (b *Builder) SetDepthCloud(depth float64) {
	b.update(func(cfg *Config) { cfg.DepthCloud = depth })
}

// SetDownscale sets the decimation of the reference and target clouds before alignment.
func (b *Builder) SetDownscale(reference, target float64) {
	b.update(func(cfg *Config) {
		cfg.ReferenceDownscale = reference
		cfg.TargetDownscale = target
	})
}

// SetRejectionThreshold sets the largest score of an accepted frame.
func (b *Builder) SetRejectionThreshold(threshold float64) {
	b.update(func(cfg *Config) { cfg.RejectionThreshold = threshold })
}

// SetRadialSize sets the size of the radial rasters.
func (b *Builder) SetRadialSize(width, height int) {
	b.update(func(cfg *Config) {
		cfg.Radial.Width = width
		cfg.Radial.Height = height
	})
}

// SetCylinderRadius sets the radius of the projection cylinder, in meters.
func (b *Builder) SetCylinderRadius(radius float64) {
	b.update(func(cfg *Config) { cfg.Radial.Radius = radius })
}

// SetExpand sets the contour expansion.
func (b *Builder) SetExpand(amount, connex int) {
	b.update(func(cfg *Config) {
		cfg.Fusion.ExpandAmount = amount
		cfg.Fusion.ExpandConnex = connex
	})
}

// SetErase sets the contour erasure.
func (b *Builder) SetErase(amount, connex int) {
	b.update(func(cfg *Config) {
		cfg.Fusion.EraseAmount = amount
		cfg.Fusion.EraseConnex = connex
	})
}

// SetDilate sets the dilation iterations. Fewer than three disables dilation.
func (b *Builder) SetDilate(iterations int) {
	b.update(func(cfg *Config) { cfg.Fusion.Dilate = iterations })
}

// SetErode sets the erosion iterations. Fewer than three disables erosion.
func (b *Builder) SetErode(iterations int) {
	b.update(func(cfg *Config) { cfg.Fusion.Erode = iterations })
}

// SetBilateral enables or disables the smoothing stage and sets its parameters.
func (b *Builder) SetBilateral(enabled bool, params rimage.BilateralParams) {
	b.update(func(cfg *Config) {
		cfg.Fusion.UseBilateral = enabled
		cfg.Fusion.Bilateral = params
	})
}

// SetDetectLandmarks enables or disables landmark tracking.
func (b *Builder) SetDetectLandmarks(enabled bool) {
	b.update(func(cfg *Config) { cfg.DetectLandmarks = enabled })
}

// MarkPixelForDeletion empties the raster cell (x, y) at the next Finalize.
func (b *Builder) MarkPixelForDeletion(x, y int) {
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	b.deletions = append(b.deletions, image.Pt(x, y))
}

// MarkDisplayPixelForDeletion marks the raster cell under pt, pt being a pixel of the raster
// shown at displaySize.
func (b *Builder) MarkDisplayPixelForDeletion(pt, displaySize image.Point) {
	if displaySize.X <= 0 || displaySize.Y <= 0 {
		return
	}
	size := b.Config().Radial
	b.MarkPixelForDeletion(pt.X*size.Width/displaySize.X, pt.Y*size.Height/displaySize.Y)
}

// ClearDeletionMask forgets every marked cell.
func (b *Builder) ClearDeletionMask() {
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	b.deletions = nil
}

// DeletionMask returns a copy of the marked cells.
func (b *Builder) DeletionMask() []image.Point {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return append([]image.Point(nil), b.deletions...)
}
