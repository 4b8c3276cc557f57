// Package mesh stores a triangle mesh with texture coordinates and normals, and derives the
// vertex adjacency needed for border and neighborhood queries.
package mesh

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/yanioaioan/swooz/pointcloud"
)

var (
	// ErrIndexOutOfRange is returned by accessors given an index outside of the mesh.
	ErrIndexOutOfRange = errors.New("mesh index out of range")
	// ErrNoNormals is returned when normals are requested before being computed.
	ErrNoNormals = errors.New("mesh has no normals")
	// ErrNoTextureCoordinates is returned when the mesh carries no texture coordinates.
	ErrNoTextureCoordinates = errors.New("mesh has no texture coordinates")
)

// edge is an undirected vertex pair with A < B.
type edge struct {
	A, B int
}

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// Mesh is an indexed triangle mesh. Normals and texture coordinates are either absent or
// present for every vertex (or triangle). Adjacency is derived data: it is rebuilt from the
// triangle list whenever the topology changes and never patched in place.
type Mesh struct {
	points          []r3.Vector
	triangles       [][3]int
	vertexNormals   []r3.Vector
	triangleNormals []r3.Vector
	texCoords       []r2.Point

	links           [][]int
	vertexTriangles [][]int
	neighbors       [][]int
	edgeTriangles   map[edge][]int
}

// New builds a mesh over a copy of points and triangles and derives its adjacency.
func New(points []r3.Vector, triangles [][3]int) (*Mesh, error) {
	m := &Mesh{points: append([]r3.Vector(nil), points...)}
	if err := m.SetTriangles(triangles); err != nil {
		return nil, err
	}
	return m, nil
}

// NewFromCloud builds a mesh whose vertices are the points of cloud.
func NewFromCloud(cloud *pointcloud.Cloud, triangles [][3]int) (*Mesh, error) {
	return New(cloud.Points(), triangles)
}

// SetTriangles replaces the topology, drops normals that no longer match it and rebuilds the
// adjacency.
func (m *Mesh) SetTriangles(triangles [][3]int) error {
	for i, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(m.points) {
				return errors.Wrapf(ErrIndexOutOfRange, "triangle %d references vertex %d of %d", i, idx, len(m.points))
			}
		}
	}
	hadNormals := m.HasVertexNormals() || m.HasTriangleNormals()
	m.triangles = append([][3]int(nil), triangles...)
	m.vertexNormals = nil
	m.triangleNormals = nil
	m.BuildEdgeVertexGraph()
	m.BuildVerticesNeighbors()
	if hadNormals {
		m.UpdateNormals()
	}
	return nil
}

// SetTextureCoordinates assigns one coordinate per vertex.
func (m *Mesh) SetTextureCoordinates(coords []r2.Point) error {
	if len(coords) != len(m.points) {
		return errors.Errorf("got %d texture coordinates for %d vertices", len(coords), len(m.points))
	}
	m.texCoords = append([]r2.Point(nil), coords...)
	return nil
}

// NumPoints returns the number of vertices.
func (m *Mesh) NumPoints() int {
	return len(m.points)
}

// NumTriangles returns the number of triangles.
func (m *Mesh) NumTriangles() int {
	return len(m.triangles)
}

// NumEdges returns the number of distinct undirected edges.
func (m *Mesh) NumEdges() int {
	return len(m.edgeTriangles)
}

// HasVertexNormals reports whether vertex normals are stored.
func (m *Mesh) HasVertexNormals() bool {
	return len(m.vertexNormals) > 0
}

// HasTriangleNormals reports whether triangle normals are stored.
func (m *Mesh) HasTriangleNormals() bool {
	return len(m.triangleNormals) > 0
}

// HasTextureCoordinates reports whether texture coordinates are stored.
func (m *Mesh) HasTextureCoordinates() bool {
	return len(m.texCoords) > 0
}

func (m *Mesh) checkVertex(i int) error {
	if i < 0 || i >= len(m.points) {
		return errors.Wrapf(ErrIndexOutOfRange, "vertex %d of %d", i, len(m.points))
	}
	return nil
}

func (m *Mesh) checkTriangle(i int) error {
	if i < 0 || i >= len(m.triangles) {
		return errors.Wrapf(ErrIndexOutOfRange, "triangle %d of %d", i, len(m.triangles))
	}
	return nil
}

// Point returns vertex i.
func (m *Mesh) Point(i int) (r3.Vector, error) {
	if err := m.checkVertex(i); err != nil {
		return r3.Vector{}, err
	}
	return m.points[i], nil
}

// Points returns the vertices. The slice must not be modified.
func (m *Mesh) Points() []r3.Vector {
	return m.points
}

// VertexNormal returns the normal of vertex i.
func (m *Mesh) VertexNormal(i int) (r3.Vector, error) {
	if err := m.checkVertex(i); err != nil {
		return r3.Vector{}, err
	}
	if !m.HasVertexNormals() {
		return r3.Vector{}, ErrNoNormals
	}
	return m.vertexNormals[i], nil
}

// TextureCoordinate returns the texture coordinate of vertex i.
func (m *Mesh) TextureCoordinate(i int) (r2.Point, error) {
	if err := m.checkVertex(i); err != nil {
		return r2.Point{}, err
	}
	if !m.HasTextureCoordinates() {
		return r2.Point{}, ErrNoTextureCoordinates
	}
	return m.texCoords[i], nil
}

// SetTextureCoordinate overwrites the texture coordinate of vertex i.
func (m *Mesh) SetTextureCoordinate(i int, uv r2.Point) error {
	if err := m.checkVertex(i); err != nil {
		return err
	}
	if !m.HasTextureCoordinates() {
		return ErrNoTextureCoordinates
	}
	m.texCoords[i] = uv
	return nil
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) ([3]int, error) {
	if err := m.checkTriangle(i); err != nil {
		return [3]int{}, err
	}
	return m.triangles[i], nil
}

// Triangles returns the triangle list. The slice must not be modified.
func (m *Mesh) Triangles() [][3]int {
	return m.triangles
}

// TrianglePoints returns the three corners of triangle i.
func (m *Mesh) TrianglePoints(i int) ([3]r3.Vector, error) {
	if err := m.checkTriangle(i); err != nil {
		return [3]r3.Vector{}, err
	}
	t := m.triangles[i]
	return [3]r3.Vector{m.points[t[0]], m.points[t[1]], m.points[t[2]]}, nil
}

// TriangleCenter returns the centroid of triangle i.
func (m *Mesh) TriangleCenter(i int) (r3.Vector, error) {
	pts, err := m.TrianglePoints(i)
	if err != nil {
		return r3.Vector{}, err
	}
	return pts[0].Add(pts[1]).Add(pts[2]).Mul(1.0 / 3), nil
}

// TriangleNormal returns the unit normal of triangle i.
func (m *Mesh) TriangleNormal(i int) (r3.Vector, error) {
	if err := m.checkTriangle(i); err != nil {
		return r3.Vector{}, err
	}
	if !m.HasTriangleNormals() {
		return r3.Vector{}, ErrNoNormals
	}
	return m.triangleNormals[i], nil
}

// triangleCross is the cross product of the two edges leaving the first corner. Its length is
// twice the triangle area and it follows the winding.
func (m *Mesh) triangleCross(i int) r3.Vector {
	t := m.triangles[i]
	a, b, c := m.points[t[0]], m.points[t[1]], m.points[t[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// UpdateTriangleNormals recomputes one unit normal per triangle. Degenerate triangles get the
// zero vector.
func (m *Mesh) UpdateTriangleNormals() {
	m.triangleNormals = make([]r3.Vector, len(m.triangles))
	for i := range m.triangles {
		n := m.triangleCross(i)
		if norm := n.Norm(); norm > 0 {
			m.triangleNormals[i] = n.Mul(1 / norm)
		}
	}
}

// UpdateVertexNormals recomputes one unit normal per vertex as the area weighted mean of the
// incident triangle normals. Vertices without triangles get the zero vector.
func (m *Mesh) UpdateVertexNormals() {
	m.vertexNormals = make([]r3.Vector, len(m.points))
	for i := range m.triangles {
		n := m.triangleCross(i)
		for _, v := range m.triangles[i] {
			m.vertexNormals[v] = m.vertexNormals[v].Add(n)
		}
	}
	for i, n := range m.vertexNormals {
		if norm := n.Norm(); norm > 0 {
			m.vertexNormals[i] = n.Mul(1 / norm)
		}
	}
}

// UpdateNormals recomputes triangle and vertex normals.
func (m *Mesh) UpdateNormals() {
	m.UpdateTriangleNormals()
	m.UpdateVertexNormals()
}

// InvertAllNormals flips the sign of every stored normal. Winding is left untouched.
func (m *Mesh) InvertAllNormals() {
	for i := range m.vertexNormals {
		m.vertexNormals[i] = m.vertexNormals[i].Mul(-1)
	}
	for i := range m.triangleNormals {
		m.triangleNormals[i] = m.triangleNormals[i].Mul(-1)
	}
}

// Scale multiplies every vertex coordinate by factor.
func (m *Mesh) Scale(factor float64) {
	for i := range m.points {
		m.points[i] = m.points[i].Mul(factor)
	}
}

// DeletePointsWithNoFaces removes every vertex that no triangle references, remaps the
// triangles and keeps normals and texture coordinates aligned. It returns how many vertices
// were removed.
func (m *Mesh) DeletePointsWithNoFaces() int {
	remap := make([]int, len(m.points))
	kept := 0
	for i := range m.points {
		if len(m.vertexTriangles[i]) == 0 {
			remap[i] = -1
			continue
		}
		remap[i] = kept
		m.points[kept] = m.points[i]
		if m.HasVertexNormals() {
			m.vertexNormals[kept] = m.vertexNormals[i]
		}
		if m.HasTextureCoordinates() {
			m.texCoords[kept] = m.texCoords[i]
		}
		kept++
	}
	removed := len(m.points) - kept
	if removed == 0 {
		return 0
	}
	m.points = m.points[:kept]
	if m.HasVertexNormals() {
		m.vertexNormals = m.vertexNormals[:kept]
	}
	if m.HasTextureCoordinates() {
		m.texCoords = m.texCoords[:kept]
	}
	for i, t := range m.triangles {
		m.triangles[i] = [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
	}
	m.BuildEdgeVertexGraph()
	m.BuildVerticesNeighbors()
	return removed
}

// NearestVertex returns the index of the vertex closest to p and its distance, -1 for an
// empty mesh.
func (m *Mesh) NearestVertex(p r3.Vector) (int, float64) {
	best, bestD2 := -1, math.Inf(1)
	for i, v := range m.points {
		if d2 := v.Sub(p).Norm2(); d2 < bestD2 {
			best, bestD2 = i, d2
		}
	}
	return best, math.Sqrt(bestD2)
}

// BoundingBox returns the extents of the vertices.
func (m *Mesh) BoundingBox() pointcloud.BoundingBox {
	bb := pointcloud.NewBoundingBox()
	for _, p := range m.points {
		bb.Extend(p)
	}
	return bb
}
