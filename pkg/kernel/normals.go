package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/trimesh/pkg/logging"
)

// isolatedNormal is assigned to vertices that no face references.
var isolatedNormal = v3.Vec{X: 0, Y: 0, Z: 1}

// normalize scales v to unit length. A zero-length v comes back unchanged,
// and NaN components propagate.
func normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.DivScalar(l)
}

// triangleNormal is normalize((p1-p0) x (p1-p2)). The operand order is the
// kernel's winding convention and must not be swapped for the more common
// (p1-p0) x (p2-p0), which points the other way.
func triangleNormal(p0, p1, p2 v3.Vec) v3.Vec {
	return normalize(p1.Sub(p0).Cross(p1.Sub(p2)))
}

func (m *Mesh) faceNormal(t Triangle) v3.Vec {
	return triangleNormal(vecAt(m.vertices, int(t[0])), vecAt(m.vertices, int(t[1])), vecAt(m.vertices, int(t[2])))
}

// FaceNormal returns the unit normal of face i. Degenerate faces (collinear
// or coincident vertices) return the zero vector.
func (m *Mesh) FaceNormal(i int) v3.Vec {
	return m.faceNormal(m.Face(i))
}

// DegenerateFaceCount returns the number of faces whose normal is zero.
func (m *Mesh) DegenerateFaceCount() int {
	n := 0
	for i := 0; i < m.TriangleCount(); i++ {
		if m.FaceNormal(i) == (v3.Vec{}) {
			n++
		}
	}
	return n
}

// UpdateNormals recomputes the per-vertex normal field from the current
// positions and faces, replacing any previous normals.
//
// Each vertex gets the normalized average of the unit normals of the faces
// that use it; face area is not a weight. A vertex used by no face gets
// (0,0,1). Degenerate faces contribute a zero vector but still count toward
// the average.
func (m *Mesh) UpdateNormals() {
	n := m.VertexCount()
	sums := make([]v3.Vec, n)
	counts := make([]int, n)
	degenerate := 0

	for f := 0; f < m.TriangleCount(); f++ {
		t := m.Face(f)
		normal := m.faceNormal(t)
		if normal == (v3.Vec{}) {
			degenerate++
		}
		for _, vi := range t {
			sums[vi] = sums[vi].Add(normal)
			counts[vi]++
		}
	}

	normals := make([]float32, 0, n*3)
	for i := range sums {
		nv := isolatedNormal
		if counts[i] > 0 {
			nv = normalize(sums[i].DivScalar(float64(counts[i])))
		}
		normals = append(normals, float32(nv.X), float32(nv.Y), float32(nv.Z))
	}
	m.normals = normals

	if degenerate > 0 {
		logging.Debug("kernel: UpdateNormals %q: %d of %d faces are degenerate", m.PartName, degenerate, m.TriangleCount())
	}
}
