package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/multierr"
)

// MaterialName is the material every exported face uses.
const MaterialName = "avatar_texture"

// WriteOBJ writes the mesh as Wavefront OBJ. mtlName is referenced through mtllib when not
// empty. Indices are one based; texture coordinates and normals are written when present.
func (m *Mesh) WriteOBJ(out io.Writer, mtlName string) error {
	w := bufio.NewWriter(out)
	if mtlName != "" {
		if _, err := fmt.Fprintf(w, "mtllib %s\n", mtlName); err != nil {
			return err
		}
	}
	for _, p := range m.points {
		if _, err := fmt.Fprintf(w, "v %f %f %f\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	for _, uv := range m.texCoords {
		if _, err := fmt.Fprintf(w, "vt %f %f\n", uv.X, uv.Y); err != nil {
			return err
		}
	}
	for _, n := range m.vertexNormals {
		if _, err := fmt.Fprintf(w, "vn %f %f %f\n", n.X, n.Y, n.Z); err != nil {
			return err
		}
	}
	if mtlName != "" {
		if _, err := fmt.Fprintf(w, "usemtl %s\n", MaterialName); err != nil {
			return err
		}
	}
	for _, t := range m.triangles {
		if _, err := fmt.Fprintf(w, "f %s %s %s\n", m.objCorner(t[0]), m.objCorner(t[1]), m.objCorner(t[2])); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (m *Mesh) objCorner(i int) string {
	i++
	switch {
	case m.HasTextureCoordinates() && m.HasVertexNormals():
		return fmt.Sprintf("%d/%d/%d", i, i, i)
	case m.HasTextureCoordinates():
		return fmt.Sprintf("%d/%d", i, i)
	case m.HasVertexNormals():
		return fmt.Sprintf("%d//%d", i, i)
	default:
		return fmt.Sprintf("%d", i)
	}
}

// WriteMTL writes a material library with a single diffuse textured material.
func WriteMTL(out io.Writer, textureName string) error {
	_, err := fmt.Fprintf(out,
		"newmtl %s\nKa 1.000000 1.000000 1.000000\nKd 1.000000 1.000000 1.000000\nKs 0.000000 0.000000 0.000000\nd 1.0\nillum 1\nmap_Kd %s\n",
		MaterialName, textureName)
	return err
}

// Save writes <dir>/<objName> and, when mtlName is not empty, <dir>/<mtlName> referencing
// textureName. The texture image itself is written by the caller.
func (m *Mesh) Save(dir, objName, mtlName, textureName string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, objName), func(w io.Writer) error {
		return m.WriteOBJ(w, mtlName)
	}); err != nil {
		return errors.Wrap(err, "cannot write obj")
	}
	if mtlName == "" {
		return nil
	}
	return errors.Wrap(writeFile(filepath.Join(dir, mtlName), func(w io.Writer) error {
		return WriteMTL(w, textureName)
	}), "cannot write mtl")
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(f)
}

// ToModel3D converts the mesh to a model3d mesh, dropping degenerate triangles.
func (m *Mesh) ToModel3D() *model3d.Mesh {
	tris := make([]*model3d.Triangle, 0, len(m.triangles))
	for _, t := range m.triangles {
		var tri model3d.Triangle
		for k, idx := range t {
			p := m.points[idx]
			tri[k] = model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		tris = append(tris, &tri)
	}
	return model3d.NewMeshTriangles(tris)
}

// SaveSTL writes the geometry as a binary STL file.
func (m *Mesh) SaveSTL(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return m.ToModel3D().SaveGroupedSTL(path)
}
