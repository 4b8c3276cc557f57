package mesh

import (
	"sort"

	"github.com/samber/lo"
)

// BuildEdgeVertexGraph derives per vertex links and incident triangles, and per edge incident
// triangles, from the triangle list.
func (m *Mesh) BuildEdgeVertexGraph() {
	m.links = make([][]int, len(m.points))
	m.vertexTriangles = make([][]int, len(m.points))
	m.edgeTriangles = make(map[edge][]int, len(m.triangles)*3/2)
	for i, t := range m.triangles {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			m.vertexTriangles[a] = append(m.vertexTriangles[a], i)
			e := newEdge(a, b)
			m.edgeTriangles[e] = append(m.edgeTriangles[e], i)
			m.links[a] = append(m.links[a], b)
			m.links[b] = append(m.links[b], a)
		}
	}
	for i := range m.links {
		l := lo.Uniq(m.links[i])
		sort.Ints(l)
		m.links[i] = l
	}
}

// BuildVerticesNeighbors orders the links of every vertex into a walk around it. The walk
// starts at a border neighbor when the vertex lies on a border, else at the smallest index.
// Links that cannot be reached by following triangles are appended in index order.
func (m *Mesh) BuildVerticesNeighbors() {
	m.neighbors = make([][]int, len(m.points))
	for v := range m.points {
		links := m.links[v]
		if len(links) == 0 {
			continue
		}
		start := links[0]
		for _, l := range links {
			if m.isBorderEdge(newEdge(v, l)) {
				start = l
				break
			}
		}
		ring := make([]int, 0, len(links))
		visited := make(map[int]bool, len(links))
		cur := start
		for cur >= 0 && !visited[cur] {
			visited[cur] = true
			ring = append(ring, cur)
			cur = m.nextAround(v, cur, visited)
		}
		for _, l := range links {
			if !visited[l] {
				ring = append(ring, l)
			}
		}
		m.neighbors[v] = ring
	}
}

// nextAround returns an unvisited vertex sharing a triangle with edge (v, cur), or -1.
func (m *Mesh) nextAround(v, cur int, visited map[int]bool) int {
	for _, ti := range m.edgeTriangles[newEdge(v, cur)] {
		for _, w := range m.triangles[ti] {
			if w != v && w != cur && !visited[w] {
				return w
			}
		}
	}
	return -1
}

func (m *Mesh) isBorderEdge(e edge) bool {
	return len(m.edgeTriangles[e]) != 2
}

// VertexLinks returns the sorted indices of vertices sharing an edge with vertex i.
func (m *Mesh) VertexLinks(i int) ([]int, error) {
	if err := m.checkVertex(i); err != nil {
		return nil, err
	}
	return m.links[i], nil
}

// VertexTriangles returns the triangles incident to vertex i.
func (m *Mesh) VertexTriangles(i int) ([]int, error) {
	if err := m.checkVertex(i); err != nil {
		return nil, err
	}
	return m.vertexTriangles[i], nil
}

// VertexNeighbors returns the links of vertex i ordered around it.
func (m *Mesh) VertexNeighbors(i int) ([]int, error) {
	if err := m.checkVertex(i); err != nil {
		return nil, err
	}
	return m.neighbors[i], nil
}

// BorderEdges returns every edge that is not shared by exactly two triangles, sorted.
func (m *Mesh) BorderEdges() [][2]int {
	var out [][2]int
	for e, tris := range m.edgeTriangles {
		if len(tris) != 2 {
			out = append(out, [2]int{e.A, e.B})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// IsTriangleOnBorder reports whether one of the edges of triangle i is a border edge.
func (m *Mesh) IsTriangleOnBorder(i int) (bool, error) {
	if err := m.checkTriangle(i); err != nil {
		return false, err
	}
	t := m.triangles[i]
	for k := 0; k < 3; k++ {
		if m.isBorderEdge(newEdge(t[k], t[(k+1)%3])) {
			return true, nil
		}
	}
	return false, nil
}

// IsVertexOnBorder reports whether vertex i is the endpoint of a border edge.
func (m *Mesh) IsVertexOnBorder(i int) (bool, error) {
	if err := m.checkVertex(i); err != nil {
		return false, err
	}
	for _, l := range m.links[i] {
		if m.isBorderEdge(newEdge(i, l)) {
			return true, nil
		}
	}
	return false, nil
}
