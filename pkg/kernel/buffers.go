package kernel

// Buffers are read-only views over a mesh's arrays in the layout a
// rasterizer consumes. Optional fields are nil unless they match the vertex
// count. The views alias the mesh: a consumer must not modify them or keep
// them after the mesh is rebuilt.
type Buffers struct {
	Vertices  []float32 `json:"vertices"`            // [x0,y0,z0, ...]
	Normals   []float32 `json:"normals,omitempty"`   // [nx0,ny0,nz0, ...]
	TexCoords []float32 `json:"texCoords,omitempty"` // [u0,v0, ...]
	Indices   []uint32  `json:"indices"`             // [i0,i1,i2, ...] triangles
}

// Buffers returns views over all of the mesh's buffers.
func (m *Mesh) Buffers() Buffers {
	return Buffers{
		Vertices:  m.Positions(),
		Normals:   m.NormalBuffer(),
		TexCoords: m.TexCoordBuffer(),
		Indices:   m.IndexBuffer(),
	}
}

// Renderer draws meshes. It enables lighting only when Normals is set and
// texturing only when TexCoords is set, and never writes to the buffers.
type Renderer interface {
	Draw(b Buffers) error
}
