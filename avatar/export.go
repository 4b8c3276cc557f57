package avatar

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/yanioaioan/swooz/rimage"
)

// Export writes the last built avatar in dir: <base>.obj with <base>.mtl and the <base>.png
// texture, <base>.stl, and <base>.landmarks listing "landmark vertex" pairs when landmarks were
// tracked.
func Export(b *Builder, dir, baseName string) error {
	m := b.Mesh()
	if m == nil {
		return errors.New("avatar has not been finalized")
	}
	texture, err := b.Texture()
	if err != nil {
		return err
	}
	textureName := baseName + ".png"
	if err := m.Save(dir, baseName+".obj", baseName+".mtl", textureName); err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(filepath.Join(dir, textureName), texture); err != nil {
		return errors.Wrap(err, "cannot write texture")
	}
	if err := m.SaveSTL(filepath.Join(dir, baseName+".stl")); err != nil {
		return errors.Wrap(err, "cannot write stl")
	}
	if matches := b.LandmarkCorrespondence(); len(matches) > 0 {
		if err := writeLandmarks(filepath.Join(dir, baseName+".landmarks"), matches); err != nil {
			return errors.Wrap(err, "cannot write landmarks")
		}
	}
	return nil
}

func writeLandmarks(path string, matches []LandmarkMatch) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	for _, match := range matches {
		if _, err := fmt.Fprintf(w, "%d %d\n", match.Landmark, match.Vertex); err != nil {
			return err
		}
	}
	return w.Flush()
}
