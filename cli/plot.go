package cli

import (
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/yanioaioan/swooz/avatar"
)

// writeScorePlot charts the alignment score of every attempted frame against the rejection
// threshold. Frames that could not be aligned have no point.
func writeScorePlot(path string, results []avatar.FrameResult, threshold float64) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Alignment scores (%d frames)", len(results))
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Score (m²)"

	accepted := make(plotter.XYs, 0, len(results))
	rejected := make(plotter.XYs, 0, len(results))
	for _, res := range results {
		if math.IsInf(res.Score, 0) || math.IsNaN(res.Score) {
			continue
		}
		pt := plotter.XY{X: float64(res.Index), Y: res.Score}
		if res.Accepted {
			accepted = append(accepted, pt)
		} else {
			rejected = append(rejected, pt)
		}
	}

	if len(accepted) > 0 {
		scatter, err := plotter.NewScatter(accepted)
		if err != nil {
			return errors.Wrap(err, "cannot plot accepted frames")
		}
		scatter.Color = color.RGBA{G: 160, A: 255}
		p.Add(scatter)
		p.Legend.Add("accepted", scatter)
	}
	if len(rejected) > 0 {
		scatter, err := plotter.NewScatter(rejected)
		if err != nil {
			return errors.Wrap(err, "cannot plot rejected frames")
		}
		scatter.Color = color.RGBA{R: 200, A: 255}
		p.Add(scatter)
		p.Legend.Add("rejected", scatter)
	}

	if len(results) > 0 {
		limit, err := plotter.NewLine(plotter.XYs{
			{X: float64(results[0].Index), Y: threshold},
			{X: float64(results[len(results)-1].Index), Y: threshold},
		})
		if err != nil {
			return errors.Wrap(err, "cannot plot threshold")
		}
		limit.Width = vg.Points(1)
		limit.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(limit)
		p.Legend.Add("threshold", limit)
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
