// Package avatar turns a stream of color and depth frames of a face into a textured mesh: every
// frame is aligned onto the first one, accepted frames are accumulated, and the accumulation
// is unwrapped on a cylinder, fused and lifted back into a mesh.
package avatar

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/fusion"
	"github.com/yanioaioan/swooz/logging"
	"github.com/yanioaioan/swooz/mesh"
	"github.com/yanioaioan/swooz/pointcloud"
	"github.com/yanioaioan/swooz/radial"
	"github.com/yanioaioan/swooz/registration"
	"github.com/yanioaioan/swooz/rimage"
	"github.com/yanioaioan/swooz/spatialmath"
	"github.com/yanioaioan/swooz/vision/facedetection"
)

var (
	// ErrFaceNotDetected is returned when no face can be found in the first frame of a capture.
	ErrFaceNotDetected = errors.New("no face detected in the reference frame")
	// ErrNoAcceptedFrames is returned by Finalize before any frame was accepted.
	ErrNoAcceptedFrames = errors.New("no accepted frame to build the avatar from")
	// ErrNoReference is returned by operations needing the reference frame before it exists.
	ErrNoReference = errors.New("no reference frame yet")
)

const (
	// depthMargin widens the depth window around the face on both sides, in meters.
	depthMargin = 0.5

	noseWidth   = 60
	noseHeight  = 70
	noseOffsetX = 30
	noseOffsetY = 50
)

// State is the stage of a capture.
type State int

// The builder starts without a reference and gets one from its first detected face.
const (
	StateUninitialized State = iota
	StateHasReference
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHasReference:
		return "has_reference"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FrameResult reports what AddFrame did with a frame.
type FrameResult struct {
	Index    int
	Accepted bool
	// Score is the alignment score of the frame, 0 for the reference frame.
	Score     float64
	Threshold float64
	// Degraded is set when the face or the nose tip was not found and the last one was reused.
	Degraded bool
	Motion   spatialmath.RigidMotion
	FaceRect image.Rectangle
	NoseRect image.Rectangle
}

// LandmarkMatch pairs a landmark with the mesh vertex closest to its mean position.
type LandmarkMatch struct {
	Landmark int
	Vertex   int
	Distance float64
}

// ScoreSummary describes the alignment scores of the accepted frames.
type ScoreSummary struct {
	Count  int
	Mean   float64
	Median float64
	Max    float64
	StdDev float64
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(b *Builder) {
		b.cfg = cfg
	}
}

// WithLandmarkDetector enables landmark tracking with det when the configuration asks for it.
func WithLandmarkDetector(det facedetection.LandmarkDetector) Option {
	return func(b *Builder) {
		b.landmarkDetector = det
	}
}

// Builder accumulates frames of a capture and builds the avatar mesh. AddFrame, Finalize and
// ResetData must not be called concurrently; configuration setters may be called from any
// goroutine.
type Builder struct {
	detector         facedetection.Detector
	landmarkDetector facedetection.LandmarkDetector
	logger           logging.Logger

	cfgMu     sync.RWMutex
	cfg       Config
	deletions []image.Point

	state        State
	frameIndex   int
	faceRef      *pointcloud.Cloud
	noseRef      *pointcloud.Cloud
	accumulation *pointcloud.Accumulation
	texture      *image.NRGBA
	faceBBox     pointcloud.BoundingBox
	lastFace     image.Rectangle
	lastNose     image.Rectangle
	lastNoseTip  r3.Vector
	scores       []float64

	landmarkSums   []r3.Vector
	landmarkCounts []int

	mesh           *mesh.Mesh
	lastRaster     *rimage.Raster
	correspondence []LandmarkMatch
}

// NewBuilder returns a builder locating faces with detector.
func NewBuilder(detector facedetection.Detector, logger logging.Logger, opts ...Option) (*Builder, error) {
	if detector == nil {
		return nil, errors.New("avatar builder needs a face detector")
	}
	b := &Builder{
		detector: detector,
		logger:   logger,
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate("avatar"); err != nil {
		return nil, err
	}
	b.ResetData()
	return b, nil
}

// ResetData drops the reference, the accumulation and the last mesh. The configuration and
// the deletion mask are kept.
func (b *Builder) ResetData() {
	b.state = StateUninitialized
	b.frameIndex = 0
	b.faceRef = nil
	b.noseRef = nil
	b.accumulation = pointcloud.NewAccumulation()
	b.texture = nil
	b.faceBBox = pointcloud.NewBoundingBox()
	b.lastFace = image.Rectangle{}
	b.lastNose = image.Rectangle{}
	b.lastNoseTip = r3.Vector{}
	b.scores = nil
	b.landmarkSums = make([]r3.Vector, facedetection.NumLandmarks)
	b.landmarkCounts = make([]int, facedetection.NumLandmarks)
	b.mesh = nil
	b.lastRaster = nil
	b.correspondence = nil
}

// AddFrame runs one frame through detection, alignment and scoring and accumulates it when
// accepted. A rejected frame is not an error. Failing to find a face before a reference exists
// returns ErrFaceNotDetected.
func (b *Builder) AddFrame(colorImg image.Image, points *rimage.PointMap) (FrameResult, error) {
	cfg := b.Config()
	result := FrameResult{
		Index:     b.frameIndex,
		Threshold: cfg.RejectionThreshold,
		Motion:    spatialmath.IdentityMotion(),
	}
	b.frameIndex++
	logger := b.logger.WithFields("frame", result.Index)

	colorImg = rimage.ResizeToMatch(colorImg, points.Width(), points.Height())
	masked, err := rimage.RemoveBackground(colorImg, points, cfg.BackgroundDistance)
	if err != nil {
		if b.state == StateUninitialized {
			return result, errors.Wrapf(ErrFaceNotDetected, "frame %d: %v", result.Index, err)
		}
		logger.Warnw("cannot remove background, frame rejected", "error", err)
		return result, nil
	}

	face, ok := b.locateFace(masked, points)
	if ok {
		b.lastFace = face
	} else {
		if b.state == StateUninitialized {
			return result, errors.Wrapf(ErrFaceNotDetected, "frame %d", result.Index)
		}
		face = b.lastFace
		result.Degraded = true
		logger.Warnw("face detection failed, reusing the last face rectangle", "face", face)
	}
	noseTip, nose, ok := b.locateNose(points, face)
	if ok {
		b.lastNoseTip, b.lastNose = noseTip, nose
	} else {
		if b.state == StateUninitialized {
			return result, errors.Wrapf(ErrFaceNotDetected, "frame %d: no nose tip in the face", result.Index)
		}
		noseTip, nose = b.lastNoseTip, b.lastNose
		result.Degraded = true
		logger.Warnw("nose tip not found, reusing the last nose rectangle", "face", face, "nose", nose)
	}
	result.FaceRect, result.NoseRect = face, nose

	var landmarks []r3.Vector
	if cfg.DetectLandmarks && b.landmarkDetector != nil {
		landmarks, err = b.landmarkDetector.Landmarks(masked, points, face)
		if err != nil {
			logger.Warnw("landmark detection failed", "error", err)
			landmarks = nil
		}
	}

	zMin, zMax := noseTip.Z-depthMargin, noseTip.Z+cfg.DepthCloud+depthMargin
	faceCloud := points.CloudFromRegion(colorImg, face, zMin, zMax)
	noseCloud := points.CloudFromRegion(colorImg, nose, zMin, zMax)

	if b.state == StateUninitialized {
		if faceCloud.Size() == 0 || noseCloud.Size() == 0 {
			return result, errors.Wrapf(ErrFaceNotDetected, "frame %d: face region has no depth sample", result.Index)
		}
		b.faceRef, b.noseRef = faceCloud, noseCloud
		b.texture = rimage.CropImage(masked, face)
		b.faceBBox = points.RegionBoundingBox(face, zMin, zMax)
		b.accumulation.Add(faceCloud)
		b.addLandmarks(landmarks, result.Motion)
		b.state = StateHasReference
		result.Accepted = true
		logger.Infow("reference frame set", "points", faceCloud.Size(), "face", face)
		return result, nil
	}

	engine, err := registration.NewEngine(cfg.Registration, logger.Sublogger("registration"))
	if err != nil {
		return result, err
	}
	aligned, err := engine.Align(b.noseRef, noseCloud, cfg.ReferenceDownscale, cfg.TargetDownscale)
	if err != nil {
		if errors.Is(err, registration.ErrDegenerate) {
			result.Score = math.Inf(1)
			logger.Warnw("alignment failed, frame rejected", "error", err)
			return result, nil
		}
		return result, err
	}
	result.Motion = aligned.Motion

	alignedFace := aligned.TransformedCloud(faceCloud)
	result.Score = pointcloud.SquareDistance(b.faceRef, alignedFace, cfg.ScoreCeiling)
	if result.Score > cfg.RejectionThreshold {
		logger.Warnw("frame rejected", "score", result.Score, "threshold", cfg.RejectionThreshold)
		return result, nil
	}

	b.accumulation.Add(alignedFace)
	b.scores = append(b.scores, result.Score)
	b.addLandmarks(landmarks, result.Motion)
	result.Accepted = true
	logger.Debugw("frame accepted",
		"score", result.Score, "threshold", cfg.RejectionThreshold, "points", alignedFace.Size())
	return result, nil
}

// locateFace detects the face and expands it.
func (b *Builder) locateFace(masked image.Image, points *rimage.PointMap) (image.Rectangle, bool) {
	detected, ok := b.detector.DetectFace(masked)
	if !ok {
		return image.Rectangle{}, false
	}
	face := expandFaceRect(detected).Intersect(points.Bounds())
	return face, !face.Empty()
}

// locateNose finds the nose tip inside face in the current depth and the nose region around it.
func (b *Builder) locateNose(points *rimage.PointMap, face image.Rectangle) (r3.Vector, image.Rectangle, bool) {
	tip, px, ok := b.detector.NoseTip(points, face)
	if !ok {
		return r3.Vector{}, image.Rectangle{}, false
	}
	nose := image.Rect(px.X-noseOffsetX, px.Y-noseOffsetY, px.X-noseOffsetX+noseWidth, px.Y-noseOffsetY+noseHeight)
	return tip, nose.Intersect(points.Bounds()), true
}

// expandFaceRect widens r by 5% on each side, raises its top by 5% of its height and makes it
// 3% taller.
func expandFaceRect(r image.Rectangle) image.Rectangle {
	w, h := float64(r.Dx()), float64(r.Dy())
	x := float64(r.Min.X) - 0.05*w
	y := float64(r.Min.Y) - 0.05*h
	w += 0.1 * w
	h += 0.03 * h
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

// addLandmarks folds landmarks, moved into the reference frame, into the running means.
func (b *Builder) addLandmarks(landmarks []r3.Vector, motion spatialmath.RigidMotion) {
	for i, p := range landmarks {
		if i >= len(b.landmarkSums) || p.Z == 0 {
			continue
		}
		b.landmarkSums[i] = b.landmarkSums[i].Add(motion.Apply(p))
		b.landmarkCounts[i]++
	}
}

// MeanLandmarks returns the running mean of every landmark and whether it was ever seen.
func (b *Builder) MeanLandmarks() ([]r3.Vector, []bool) {
	means := make([]r3.Vector, len(b.landmarkSums))
	seen := make([]bool, len(b.landmarkSums))
	for i, sum := range b.landmarkSums {
		if b.landmarkCounts[i] > 0 {
			means[i] = sum.Mul(1 / float64(b.landmarkCounts[i]))
			seen[i] = true
		}
	}
	return means, seen
}

// Finalize builds the mesh from the accumulation with the current configuration and
// deletion mask.
func (b *Builder) Finalize() (*mesh.Mesh, error) {
	cfg := b.Config()
	return b.FinalizeWith(cfg, b.DeletionMask())
}

// FinalizeWith builds the mesh from the accumulation with an explicit configuration and
// deletion mask. It can be called again to rebuild after tuning.
func (b *Builder) FinalizeWith(cfg Config, deletions []image.Point) (*mesh.Mesh, error) {
	if err := cfg.Validate("avatar"); err != nil {
		return nil, err
	}
	if b.accumulation.NumFrames() == 0 {
		return nil, ErrNoAcceptedFrames
	}

	bbox := b.accumulation.BoundingBox()
	rasters := make([]*rimage.Raster, 0, b.accumulation.NumFrames())
	for i, frame := range b.accumulation.Frames() {
		raster, _, err := radial.Project(frame, bbox, cfg.Radial)
		if err != nil {
			return nil, errors.Wrapf(err, "projecting accepted frame %d", i)
		}
		rasters = append(rasters, raster)
	}

	params := cfg.Fusion
	params.DeletedCells = deletions
	fused, err := fusion.Fuse(rasters, params, b.debugHook(cfg.DebugDir))
	if err != nil {
		return nil, err
	}
	b.lastRaster = fused

	surface, err := radial.Unproject(fused, bbox, b.faceBBox, cfg.Radial)
	if err != nil {
		return nil, err
	}
	m, err := surface.Mesh()
	if err != nil {
		return nil, err
	}
	b.mesh = m
	b.correspondence = b.matchLandmarks(m)

	b.logger.Infow("avatar mesh built",
		"frames", b.accumulation.NumFrames(), "points", b.accumulation.Size(),
		"vertices", m.NumPoints(), "triangles", m.NumTriangles())
	return m, nil
}

func (b *Builder) matchLandmarks(m *mesh.Mesh) []LandmarkMatch {
	if m.NumPoints() == 0 {
		return nil
	}
	means, seen := b.MeanLandmarks()
	var matches []LandmarkMatch
	for i, p := range means {
		if !seen[i] {
			continue
		}
		v, d := m.NearestVertex(p)
		matches = append(matches, LandmarkMatch{Landmark: i, Vertex: v, Distance: d})
	}
	return matches
}

// debugHook writes every fusion stage to dir as a false color picture.
func (b *Builder) debugHook(dir string) fusion.StageHook {
	if dir == "" {
		return nil
	}
	step := 0
	return func(stage string, raster *rimage.Raster) {
		path := filepath.Join(dir, fmt.Sprintf("%02d_%s.png", step, stage))
		step++
		if err := rimage.WriteImageToFile(path, raster.ToPrettyPicture()); err != nil {
			b.logger.Warnw("cannot write fusion stage", "stage", stage, "path", path, "error", err)
		}
	}
}

// State returns the stage of the capture.
func (b *Builder) State() State {
	return b.state
}

// NumAcceptedFrames returns how many frames the accumulation holds.
func (b *Builder) NumAcceptedFrames() int {
	return b.accumulation.NumFrames()
}

// Accumulation returns the accepted clouds, aligned onto the reference.
func (b *Builder) Accumulation() *pointcloud.Accumulation {
	return b.accumulation
}

// AccumulatedCloud returns every accepted point as one cloud.
func (b *Builder) AccumulatedCloud() *pointcloud.Cloud {
	return b.accumulation.Merged()
}

// Mesh returns the last built mesh, nil before Finalize.
func (b *Builder) Mesh() *mesh.Mesh {
	return b.mesh
}

// LastRadialProjection returns the fused raster of the last Finalize.
func (b *Builder) LastRadialProjection() *rimage.Raster {
	return b.lastRaster
}

// Texture returns the background-removed face of the reference frame.
func (b *Builder) Texture() (*image.NRGBA, error) {
	if b.texture == nil {
		return nil, ErrNoReference
	}
	return b.texture, nil
}

// LastFaceRect returns the face rectangle of the last detection.
func (b *Builder) LastFaceRect() image.Rectangle {
	return b.lastFace
}

// LastNoseRect returns the nose rectangle of the last detection.
func (b *Builder) LastNoseRect() image.Rectangle {
	return b.lastNose
}

// LandmarkCorrespondence returns the landmark to vertex matches of the last Finalize.
func (b *Builder) LandmarkCorrespondence() []LandmarkMatch {
	return b.correspondence
}

// ScoreStats summarizes the scores of the accepted frames after the reference.
func (b *Builder) ScoreStats() (ScoreSummary, error) {
	if len(b.scores) == 0 {
		return ScoreSummary{}, errors.New("no scored frame")
	}
	data := stats.Float64Data(b.scores)
	summary := ScoreSummary{Count: len(b.scores)}
	var err error
	if summary.Mean, err = data.Mean(); err != nil {
		return ScoreSummary{}, err
	}
	if summary.Median, err = data.Median(); err != nil {
		return ScoreSummary{}, err
	}
	if summary.Max, err = data.Max(); err != nil {
		return ScoreSummary{}, err
	}
	if summary.StdDev, err = data.StandardDeviation(); err != nil {
		return ScoreSummary{}, err
	}
	return summary, nil
}
