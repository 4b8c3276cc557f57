package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

type testWriter struct {
	messages []string
}

func (tw *testWriter) Write(b []byte) (int, error) {
	tw.messages = append(tw.messages, string(b))
	return len(b), nil
}

func TestSynthThenBuild(t *testing.T) {
	framesDir := t.TempDir()
	outDir := t.TempDir()
	out := &testWriter{}
	errOut := &testWriter{}

	app := NewApp(out, errOut)
	err := app.Run([]string{"avatar", "synth", "--output", framesDir, "--frames", "4"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(out.messages), test.ShouldEqual, 1)
	test.That(t, out.messages[0], test.ShouldContainSubstring, "wrote 4 synthetic frames")
	for _, name := range []string{"color_0000.png", "depth_0003.png", "intrinsics.json"} {
		_, err := os.Stat(filepath.Join(framesDir, name))
		test.That(t, err, test.ShouldBeNil)
	}

	configPath := filepath.Join(t.TempDir(), "avatar.json")
	conf := `{"reference_downscale": 0.1, "target_downscale": 0.1, "radial": {"width": 100, "height": 60}}`
	test.That(t, os.WriteFile(configPath, []byte(conf), 0o600), test.ShouldBeNil)

	out.messages = nil
	err = app.Run([]string{
		"avatar", "--debug", "build",
		"--input", framesDir, "--output", outDir, "--config", configPath,
		"--frames", "3", "--base-name", "head", "--landmarks",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(errOut.messages), test.ShouldEqual, 0)
	test.That(t, len(out.messages), test.ShouldEqual, 2)
	test.That(t, out.messages[0], test.ShouldContainSubstring, "accepted 3 of")
	test.That(t, out.messages[1], test.ShouldContainSubstring, "alignment scores")

	for _, name := range []string{
		"head.obj", "head.mtl", "head.png", "head.stl", "head.landmarks",
		"head_radial.png", "head.pcd", "head_detection.png", "head_scores.png",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		test.That(t, err, test.ShouldBeNil)
	}
	stages, err := os.ReadDir(filepath.Join(outDir, "stages"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(stages), test.ShouldBeGreaterThan, 0)

	obj, err := os.ReadFile(filepath.Join(outDir, "head.obj"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Contains(string(obj), "mtllib head.mtl"), test.ShouldBeTrue)
}

func TestBuildRequiresInput(t *testing.T) {
	out := &testWriter{}
	errOut := &testWriter{}
	err := NewApp(out, errOut).Run([]string{"avatar", "build", "--output", t.TempDir()})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, flagInput)
}

func TestBuildMissingFrames(t *testing.T) {
	err := NewApp(&testWriter{}, &testWriter{}).Run([]string{
		"avatar", "build", "--input", t.TempDir(), "--output", t.TempDir(),
	})
	test.That(t, err, test.ShouldNotBeNil)
}
