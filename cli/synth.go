package cli

import (
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yanioaioan/swooz/avatar"
	"github.com/yanioaioan/swooz/testutils/synthface"
)

// SynthAction is the corresponding Action for 'synth'.
func SynthAction(c *cli.Context) error {
	logger, done := newLogger(c)
	defer done()

	params := synthface.DefaultParams()
	params.Width = c.Int(flagWidth)
	params.Height = c.Int(flagHeight)
	// keep the head the same apparent size whatever the resolution
	params.Focal *= float64(params.Width) / float64(synthface.DefaultParams().Width)

	outDir := c.String(flagOutput)
	for i := 0; i < c.Int(flagFrames); i++ {
		frame, err := synthface.Generate(params, i)
		if err != nil {
			return err
		}
		if err := avatar.WriteFrame(outDir, i, frame.Color, frame.Depth); err != nil {
			return err
		}
		logger.Debugw("frame written", "frame", i, "jitter", params.Jitter(i))
	}
	if err := params.Intrinsics().WriteToJSONFile(filepath.Join(outDir, avatar.IntrinsicsFileName)); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %d synthetic frames to %s", c.Int(flagFrames), outDir)
	return nil
}
