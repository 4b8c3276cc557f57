package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/yanioaioan/swooz/avatar"
	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/vision/facedetection"
)

// BuildAction is the corresponding Action for 'build'.
func BuildAction(c *cli.Context) error {
	logger, done := newLogger(c)
	defer done()

	cfg := avatar.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		fromFile, err := avatar.ReadConfigFile(path)
		if err != nil {
			return err
		}
		cfg = *fromFile
	}
	if c.Bool(flagLandmarks) {
		cfg.DetectLandmarks = true
	}
	outDir := c.String(flagOutput)
	baseName := c.String(flagBaseName)
	if c.Bool(flagDebug) {
		cfg.DebugDir = filepath.Join(outDir, "stages")
	}

	source, err := avatar.NewDirectorySource(c.String(flagInput))
	if err != nil {
		return err
	}
	builder, err := avatar.NewBuilder(
		facedetection.NewDepthDetector(0),
		logger,
		avatar.WithConfig(cfg),
		avatar.WithLandmarkDetector(facedetection.NewTemplateLandmarkDetector()),
	)
	if err != nil {
		return err
	}

	report, err := avatar.Capture(c.Context, builder, source, avatar.CaptureOptions{
		Frames:      c.Int(flagFrames),
		MaxAttempts: c.Int(flagMaxAttempts),
	})
	if err != nil {
		return errors.Wrap(err, "capture failed")
	}
	m, err := builder.Finalize()
	if err != nil {
		return err
	}
	if err := avatar.Export(builder, outDir, baseName); err != nil {
		return err
	}
	if err := writeDiagnostics(c.Context, builder, c.String(flagInput), outDir, baseName, report); err != nil {
		return err
	}

	printf(c.App.Writer, "accepted %d of %d frames, mesh has %d vertices and %d triangles, written to %s",
		report.Accepted, report.Attempted, m.NumPoints(), m.NumTriangles(), outDir)
	if summary, err := builder.ScoreStats(); err == nil {
		printf(c.App.Writer, "alignment scores: mean %.3g, median %.3g, max %.3g, stddev %.3g",
			summary.Mean, summary.Median, summary.Max, summary.StdDev)
	}
	return nil
}

// writeDiagnostics writes the fused raster, the accumulated cloud, a chart of the alignment
// scores and the first input frame annotated with the detected rectangles.
func writeDiagnostics(
	ctx context.Context,
	builder *avatar.Builder,
	inDir, outDir, baseName string,
	report avatar.CaptureReport,
) error {
	raster := builder.LastRadialProjection()
	if err := rimage.WriteImageToFile(filepath.Join(outDir, baseName+"_radial.png"), raster.ToPrettyPicture()); err != nil {
		return errors.Wrap(err, "cannot write radial projection")
	}
	if err := pointcloud.WriteToPCDFile(builder.AccumulatedCloud(), filepath.Join(outDir, baseName+".pcd")); err != nil {
		return errors.Wrap(err, "cannot write accumulated cloud")
	}
	scorePath := filepath.Join(outDir, baseName+"_scores.png")
	if err := writeScorePlot(scorePath, report.Results, builder.Config().RejectionThreshold); err != nil {
		return errors.Wrap(err, "cannot write score plot")
	}

	source, err := avatar.NewDirectorySource(inDir)
	if err != nil {
		return err
	}
	first, _, err := source.NextFrame(ctx)
	if err != nil {
		return err
	}
	caption := fmt.Sprintf("%d/%d frames accepted", report.Accepted, report.Attempted)
	overlay := rimage.AnnotateDetection(first, builder.LastFaceRect(), builder.LastNoseRect(), caption)
	return rimage.WriteImageToFile(filepath.Join(outDir, baseName+"_detection.png"), overlay)
}
