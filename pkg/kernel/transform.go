package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Affine maps a position through a 4x4 homogeneous matrix as (p, 1),
// keeping x, y and z and performing no w divide. The bottom row must be
// (0,0,0,1) for the result to be affine. sdf.M44 satisfies it.
type Affine interface {
	MulPosition(p v3.Vec) v3.Vec
}

// Transform returns a copy of in with every position mapped through xf.
// The input mesh is never modified.
//
// If the copy has valid normals they are recomputed from the transformed
// geometry with UpdateNormals rather than multiplied by the inverse
// transpose. That stays correct under non-uniform scale and shear, but any
// normals that did not come from UpdateNormals are replaced.
func Transform(in *Mesh, xf Affine) *Mesh {
	out := in.Clone()
	for i := 0; i < out.VertexCount(); i++ {
		out.SetVertex(i, xf.MulPosition(vecAt(out.vertices, i)))
	}
	if out.NormalCount() > 0 {
		out.UpdateNormals()
	}
	return out
}
