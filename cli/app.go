// Package cli contains the avatar command line: building an avatar from recorded frames and
// recording synthetic frames to try it on.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yanioaioan/swooz/logging"
)

const (
	flagInput       = "input"
	flagOutput      = "output"
	flagConfig      = "config"
	flagFrames      = "frames"
	flagMaxAttempts = "max-attempts"
	flagBaseName    = "base-name"
	flagLandmarks   = "landmarks"
	flagLogFile     = "log-file"
	flagDebug       = "debug"
	flagWidth       = "width"
	flagHeight      = "height"
)

// NewApp returns the avatar CLI, Writer set to out, and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "avatar",
		Usage:           "build textured face meshes from depth and color captures",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated when it grows",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging and dump every fusion stage",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "build an avatar from a recorded capture",
				UsageText: "avatar build --input DIR --output DIR [--config FILE] [--frames N]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagInput,
						Aliases:  []string{"i"},
						Usage:    "directory holding color_NNNN.png, depth_NNNN.png and intrinsics.json",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Usage:    "directory receiving the avatar files",
						Required: true,
					},
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load the avatar configuration from `FILE`",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Usage: "number of frames to accept",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  flagMaxAttempts,
						Usage: "stop after reading that many frames, 0 for no limit",
					},
					&cli.StringFlag{
						Name:  flagBaseName,
						Usage: "base name of the written files",
						Value: "avatar",
					},
					&cli.BoolFlag{
						Name:  flagLandmarks,
						Usage: "track facial landmarks and write their mesh vertices",
					},
				},
				Action: BuildAction,
			},
			{
				Name:      "synth",
				Usage:     "record frames of a synthetic head",
				UsageText: "avatar synth --output DIR [--frames N]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 5,
					},
					&cli.IntFlag{
						Name:  flagWidth,
						Value: 200,
					},
					&cli.IntFlag{
						Name:  flagHeight,
						Value: 160,
					},
				},
				Action: SynthAction,
			},
		},
	}
}

// newLogger builds the logger of a command from the global flags. The returned function
// flushes and releases it.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	level := logging.INFO
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	if path := c.String(flagLogFile); path != "" {
		logger, closer := logging.NewFileLogger("avatar", level, logging.FileAppenderConfig{Path: path})
		return logger, func() {
			//nolint:errcheck
			logger.Sync()
			//nolint:errcheck
			closer.Close()
		}
	}
	logger := logging.NewLogger("avatar")
	logger.SetLevel(level)
	return logger, func() {
		//nolint:errcheck
		logger.Sync()
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
