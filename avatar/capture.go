package avatar

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// CaptureOptions bounds a capture session.
type CaptureOptions struct {
	// Frames is the number of accepted frames to collect.
	Frames int
	// MaxAttempts stops the session after that many frames were pulled. 0 means no limit.
	MaxAttempts int
}

// CaptureReport counts what happened to the frames of a session.
type CaptureReport struct {
	Attempted int
	Accepted  int
	Rejected  int
	Degraded  int
	// Results holds one entry per attempted frame, in order.
	Results []FrameResult
}

// Capture resets b and feeds it frames from source until opts.Frames frames are accepted. A
// face missing from the first frame ends the session with ErrFaceNotDetected; rejected frames
// are skipped. ctx is only checked between frames. Running out of frames after at least one
// accepted frame ends the session early without error.
func Capture(ctx context.Context, b *Builder, source FrameSource, opts CaptureOptions) (CaptureReport, error) {
	if opts.Frames <= 0 {
		return CaptureReport{}, errors.Errorf("frame count must be positive, got %d", opts.Frames)
	}
	b.ResetData()

	var report CaptureReport
	for report.Accepted < opts.Frames {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if opts.MaxAttempts > 0 && report.Attempted >= opts.MaxAttempts {
			b.logger.Warnw("capture stopped before enough frames were accepted",
				"attempted", report.Attempted, "accepted", report.Accepted, "wanted", opts.Frames)
			break
		}

		colorImg, points, err := source.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			b.logger.Warnw("frame source exhausted", "attempted", report.Attempted, "accepted", report.Accepted)
			break
		}
		if err != nil {
			return report, errors.Wrap(err, "cannot read frame")
		}
		report.Attempted++

		result, err := b.AddFrame(colorImg, points)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
		if result.Degraded {
			report.Degraded++
		}
		if result.Accepted {
			report.Accepted++
		} else {
			report.Rejected++
		}
	}
	if report.Accepted == 0 {
		return report, ErrNoAcceptedFrames
	}
	b.logger.Infow("capture done",
		"attempted", report.Attempted, "accepted", report.Accepted, "rejected", report.Rejected, "degraded", report.Degraded)
	return report, nil
}
