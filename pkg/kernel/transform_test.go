package kernel

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tetra returns a tetrahedron with derived normals and texture coordinates.
func tetra() *Mesh {
	m := NewMesh(
		v3.Vec{X: 0.25, Y: -1.5, Z: 0.1},
		v3.Vec{X: 2.75, Y: 0.5, Z: -0.3},
		v3.Vec{X: -1.2, Y: 1.9, Z: 0.7},
		v3.Vec{X: 0.4, Y: 0.3, Z: 3.3},
	)
	m.PartName = "tetra"
	m.AddFace(0, 1, 2)
	m.AddFace(0, 3, 1)
	m.AddFace(1, 3, 2)
	m.AddFace(2, 3, 0)
	m.SetTexCoords([]v2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5}})
	m.UpdateNormals()
	return m
}

func TestTransformIdentityIsBitIdentical(t *testing.T) {
	m := tetra()
	out := Transform(m, sdf.Identity3d())

	assert.Equal(t, m.Positions(), out.Positions())
	assert.Equal(t, m.NormalBuffer(), out.NormalBuffer())
	assert.Equal(t, m.TexCoordBuffer(), out.TexCoordBuffer())
	assert.Equal(t, m.IndexBuffer(), out.IndexBuffer())
	assert.Equal(t, m.PartName, out.PartName)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	m := tetra()
	before := m.Clone()

	out := Transform(m, sdf.Translate3d(v3.Vec{X: 5, Y: -2, Z: 1}).Mul(sdf.Scale3d(v3.Vec{X: 2, Y: 3, Z: 0.5})))

	assert.Equal(t, before.Buffers(), m.Buffers())
	assert.NotEqual(t, m.Positions(), out.Positions())

	// The copy owns its buffers.
	out.SetVertex(0, v3.Vec{X: 100})
	assert.Equal(t, before.Vertex(0), m.Vertex(0))
}

func TestTransformTranslates(t *testing.T) {
	m := tetra()
	out := Transform(m, sdf.Translate3d(v3.Vec{X: 1, Y: 2, Z: 3}))

	for i := 0; i < m.VertexCount(); i++ {
		want := m.Vertex(i).Add(v3.Vec{X: 1, Y: 2, Z: 3})
		assertVecInDelta(t, want, out.Vertex(i), 1e-6, "vertex %d", i)
	}
	// Translation leaves face orientation alone.
	for i := 0; i < m.VertexCount(); i++ {
		assertVecInDelta(t, m.Normal(i), out.Normal(i), 1e-6, "normal %d", i)
	}
}

func TestTransformComposes(t *testing.T) {
	m := tetra()
	a := sdf.Translate3d(v3.Vec{X: 1, Y: 2, Z: 3}).Mul(sdf.RotateZ(0.3))
	b := sdf.Scale3d(v3.Vec{X: 2, Y: 0.5, Z: 3}).Mul(sdf.RotateX(-1.1))

	twice := Transform(Transform(m, a), b)
	once := Transform(m, b.Mul(a))

	require.Equal(t, once.VertexCount(), twice.VertexCount())
	for i := 0; i < once.VertexCount(); i++ {
		assertVecInDelta(t, once.Vertex(i), twice.Vertex(i), 1e-4, "vertex %d", i)
		assertVecInDelta(t, once.Normal(i), twice.Normal(i), 1e-4, "normal %d", i)
	}
}

func TestTransformRecomputesNormals(t *testing.T) {
	m := NewMesh(
		v3.Vec{X: 0, Y: 0, Z: 0},
		v3.Vec{X: 1, Y: 0, Z: 0},
		v3.Vec{X: 0, Y: 1, Z: 0},
	)
	m.AddFace(0, 1, 2)
	m.UpdateNormals()

	out := Transform(m, sdf.RotateX(math.Pi/3).Mul(sdf.Scale3d(v3.Vec{X: 4, Y: 0.25, Z: 1})))

	// The recomputed normal is unit length and perpendicular to the
	// transformed face.
	p0, p1, p2 := out.Vertex(0), out.Vertex(1), out.Vertex(2)
	for i := 0; i < 3; i++ {
		n := out.Normal(i)
		assert.InDelta(t, 1.0, n.Length(), 1e-6)
		assert.InDelta(t, 0.0, n.Dot(p1.Sub(p0)), 1e-5)
		assert.InDelta(t, 0.0, n.Dot(p2.Sub(p0)), 1e-5)
	}
	assertVecInDelta(t, triangleNormal(p0, p1, p2), out.Normal(0), 1e-6)
}

func TestTransformWithoutNormalsKeepsThemAbsent(t *testing.T) {
	m := quad()
	out := Transform(m, sdf.Scale3d(v3.Vec{X: 2, Y: 2, Z: 2}))

	assert.False(t, out.HasNormals())
	assert.Equal(t, v3.Vec{X: 2, Y: 2, Z: 0}, out.Vertex(2))
}

func TestTransformReplacesStaleNormals(t *testing.T) {
	m := quad()
	m.UpdateNormals()
	// Positions edited after the normals were derived; the normals are
	// still a valid field, so the transform rederives them.
	m.SetVertex(2, v3.Vec{X: 1, Y: 0, Z: 1})

	out := Transform(m, sdf.Identity3d())
	assert.NotEqual(t, m.NormalBuffer(), out.NormalBuffer())
	assertVecInDelta(t, out.FaceNormal(0), out.Normal(1), 1e-6)
}

func TestTransformEmptyMesh(t *testing.T) {
	out := Transform(&Mesh{}, sdf.Translate3d(v3.Vec{X: 1}))
	assert.True(t, out.IsEmpty())
}

// shear is a hand-built affine map: x' = x + k*y.
type shear struct{ k float64 }

func (s shear) MulPosition(p v3.Vec) v3.Vec {
	return v3.Vec{X: p.X + s.k*p.Y, Y: p.Y, Z: p.Z}
}

func TestTransformAcceptsAnyAffine(t *testing.T) {
	m := quad()
	out := Transform(m, shear{k: 0.5})
	assert.Equal(t, v3.Vec{X: 1.5, Y: 1, Z: 0}, out.Vertex(2))
	assert.Equal(t, v3.Vec{X: 0.5, Y: 1, Z: 0}, out.Vertex(3))
}
