package kernel

import (
	"errors"
	"fmt"
	"math"
	"slices"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrIndexRange is returned when indices do not fit the requested width.
var ErrIndexRange = errors.New("index out of range for buffer width")

// Triangle is one face: three indices into the mesh's vertex arena.
// The cyclic order of the indices is the winding.
type Triangle [3]uint32

// Mesh is an indexed triangle mesh. Vertices live in one flat arena and
// faces refer to them by index, so the buffers can be handed to a renderer
// as they are: 3 floats per position, 3 per normal, 2 per texture coordinate
// and 3 indices per triangle.
//
// Normals and texture coordinates are optional. Either field only counts
// as present when it holds exactly one entry per vertex; a partially filled
// field reads as absent.
//
// A Mesh is not safe for concurrent mutation.
type Mesh struct {
	PartName string // which design part this came from

	vertices  []float32 // [x0,y0,z0, x1,y1,z1, ...]
	normals   []float32 // [nx0,ny0,nz0, ...]
	texCoords []float32 // [u0,v0, u1,v1, ...]
	indices   []uint32  // [i0,i1,i2, ...] triangles
}

// NewMesh returns a mesh holding the given positions and no faces.
func NewMesh(positions ...v3.Vec) *Mesh {
	m := &Mesh{vertices: make([]float32, 0, len(positions)*3)}
	for _, p := range positions {
		m.AddVertex(p)
	}
	return m
}

// AddVertex appends a position and returns its index.
func (m *Mesh) AddVertex(p v3.Vec) int {
	m.vertices = append(m.vertices, float32(p.X), float32(p.Y), float32(p.Z))
	return m.VertexCount() - 1
}

// AddTexCoord appends one texture coordinate. Coordinates pair with
// vertices by position in the sequence.
func (m *Mesh) AddTexCoord(uv v2.Vec) {
	m.texCoords = append(m.texCoords, float32(uv.X), float32(uv.Y))
}

// SetTexCoords replaces the texture coordinate field.
func (m *Mesh) SetTexCoords(uvs []v2.Vec) {
	m.texCoords = make([]float32, 0, len(uvs)*2)
	for _, uv := range uvs {
		m.AddTexCoord(uv)
	}
}

// AddFace appends the triangle (v0, v1, v2) as given, with no winding
// correction. Every index must be a valid vertex index; violating this is a
// programming error and panics.
func (m *Mesh) AddFace(v0, v1, v2 int) {
	n := m.VertexCount()
	for slot, v := range [3]int{v0, v1, v2} {
		if v < 0 || v >= n {
			panic(fmt.Sprintf("kernel: AddFace: v%d index %d out of bounds [0,%d)", slot, v, n))
		}
	}
	m.indices = append(m.indices, uint32(v0), uint32(v1), uint32(v2))
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices) / 3
}

// NormalCount returns the number of normals, or 0 when the normal field is
// absent or does not match the vertex count.
func (m *Mesh) NormalCount() int {
	if !m.HasNormals() {
		return 0
	}
	return len(m.normals) / 3
}

// TexCoordCount returns the number of texture coordinates, or 0 when the
// field is absent or does not match the vertex count.
func (m *Mesh) TexCoordCount() int {
	if !m.HasTexCoords() {
		return 0
	}
	return len(m.texCoords) / 2
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.vertices) == 0
}

// HasNormals reports whether there is exactly one normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.normals) > 0 && len(m.normals) == len(m.vertices)
}

// HasTexCoords reports whether there is exactly one texture coordinate per vertex.
func (m *Mesh) HasTexCoords() bool {
	return len(m.texCoords) > 0 && len(m.texCoords)/2 == m.VertexCount()
}

func (m *Mesh) checkVertex(op string, i int) {
	if i < 0 || i >= m.VertexCount() {
		panic(fmt.Sprintf("kernel: %s: vertex index %d out of bounds [0,%d)", op, i, m.VertexCount()))
	}
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) v3.Vec {
	m.checkVertex("Vertex", i)
	return vecAt(m.vertices, i)
}

// SetVertex moves vertex i. Normals are not updated; call UpdateNormals.
func (m *Mesh) SetVertex(i int, p v3.Vec) {
	m.checkVertex("SetVertex", i)
	m.vertices[i*3+0] = float32(p.X)
	m.vertices[i*3+1] = float32(p.Y)
	m.vertices[i*3+2] = float32(p.Z)
}

// Normal returns the normal of vertex i. It panics if the normal field is
// not valid.
func (m *Mesh) Normal(i int) v3.Vec {
	m.checkVertex("Normal", i)
	if !m.HasNormals() {
		panic("kernel: Normal: mesh has no valid normals")
	}
	return vecAt(m.normals, i)
}

// TexCoord returns the texture coordinate of vertex i. It panics if the
// texture coordinate field is not valid.
func (m *Mesh) TexCoord(i int) v2.Vec {
	m.checkVertex("TexCoord", i)
	if !m.HasTexCoords() {
		panic("kernel: TexCoord: mesh has no valid texture coordinates")
	}
	return v2.Vec{X: float64(m.texCoords[i*2]), Y: float64(m.texCoords[i*2+1])}
}

// Face returns triangle i.
func (m *Mesh) Face(i int) Triangle {
	if i < 0 || i >= m.TriangleCount() {
		panic(fmt.Sprintf("kernel: Face: face index %d out of bounds [0,%d)", i, m.TriangleCount()))
	}
	return Triangle{m.indices[i*3], m.indices[i*3+1], m.indices[i*3+2]}
}

// Positions returns the position buffer. Callers must not modify it.
func (m *Mesh) Positions() []float32 {
	return m.vertices
}

// NormalBuffer returns the normal buffer, or nil if the field is not valid.
// Callers must not modify it.
func (m *Mesh) NormalBuffer() []float32 {
	if !m.HasNormals() {
		return nil
	}
	return m.normals
}

// TexCoordBuffer returns the texture coordinate buffer, or nil if the field
// is not valid. Callers must not modify it.
func (m *Mesh) TexCoordBuffer() []float32 {
	if !m.HasTexCoords() {
		return nil
	}
	return m.texCoords
}

// IndexBuffer returns the triangle index buffer. Callers must not modify it.
func (m *Mesh) IndexBuffer() []uint32 {
	return m.indices
}

// IndexBuffer16 returns a 16-bit copy of the index buffer for renderers that
// draw with unsigned short indices. It fails with ErrIndexRange when the mesh
// has more vertices than a uint16 can address.
func (m *Mesh) IndexBuffer16() ([]uint16, error) {
	if m.VertexCount() > math.MaxUint16+1 {
		return nil, fmt.Errorf("kernel: IndexBuffer16: %d vertices: %w", m.VertexCount(), ErrIndexRange)
	}
	out := make([]uint16, len(m.indices))
	for i, idx := range m.indices {
		out[i] = uint16(idx)
	}
	return out, nil
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		PartName:  m.PartName,
		vertices:  slices.Clone(m.vertices),
		normals:   slices.Clone(m.normals),
		texCoords: slices.Clone(m.texCoords),
		indices:   slices.Clone(m.indices),
	}
}

func vecAt(buf []float32, i int) v3.Vec {
	return v3.Vec{X: float64(buf[i*3]), Y: float64(buf[i*3+1]), Z: float64(buf[i*3+2])}
}
