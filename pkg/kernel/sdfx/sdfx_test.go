package sdfx

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/trimesh/pkg/config"
	"github.com/chazu/trimesh/pkg/kernel"
)

// newTestKernel returns a coarse kernel so the marching cubes tests stay fast.
func newTestKernel(weld bool) *SdfxKernel {
	return NewWithConfig(config.KernelConfig{MeshCells: 40, Weld: weld})
}

// outwardScore sums, over every face, the dot product of the face normal
// with the direction from the mesh center to the face centroid. A closed
// mesh with outward normals scores positive.
func outwardScore(m *kernel.Mesh) float64 {
	center := m.BoundingBoxCenter()
	score := 0.0
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.Face(i)
		centroid := m.Vertex(int(f[0])).Add(m.Vertex(int(f[1]))).Add(m.Vertex(int(f[2]))).MulScalar(1.0 / 3)
		score += m.FaceNormal(i).Dot(centroid.Sub(center))
	}
	return score
}

func TestBox(t *testing.T) {
	k := newTestKernel(true)
	mesh, err := k.ToMesh(k.Box(100, 50, 25))
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	assert.NotZero(t, mesh.TriangleCount())
	assert.True(t, mesh.HasNormals(), "ToMesh derives normals")
	assert.Equal(t, mesh.VertexCount(), mesh.NormalCount())
	assert.Len(t, mesh.IndexBuffer(), mesh.TriangleCount()*3)
	assert.Less(t, mesh.VertexCount(), mesh.TriangleCount()*3, "welded vertices are shared")

	// The mesh hugs the solid to within a marching cubes cell.
	const tol = 100.0 / 40
	min, max := mesh.BoundingBox()
	assert.InDelta(t, 0, min.X, tol)
	assert.InDelta(t, 0, min.Y, tol)
	assert.InDelta(t, 0, min.Z, tol)
	assert.InDelta(t, 100, max.X, tol)
	assert.InDelta(t, 50, max.Y, tol)
	assert.InDelta(t, 25, max.Z, tol)
}

func TestToMeshNormalsPointOutward(t *testing.T) {
	k := newTestKernel(true)
	mesh, err := k.ToMesh(k.Box(40, 40, 40))
	require.NoError(t, err)
	assert.Greater(t, outwardScore(mesh), 0.0)

	// Vertex normals near the top face lean upward.
	_, max := mesh.BoundingBox()
	upward := 0
	top := 0
	for i := 0; i < mesh.VertexCount(); i++ {
		if math.Abs(mesh.Vertex(i).Z-max.Z) < 1e-3 {
			top++
			if mesh.Normal(i).Z > 0 {
				upward++
			}
		}
	}
	require.NotZero(t, top)
	assert.Equal(t, top, upward)
}

func TestToMeshWithoutWeld(t *testing.T) {
	k := newTestKernel(false)
	mesh, err := k.ToMesh(k.Box(20, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, mesh.TriangleCount()*3, mesh.VertexCount())
	assert.Greater(t, outwardScore(mesh), 0.0)
}

func TestToMeshInvalidResolution(t *testing.T) {
	k := NewWithConfig(config.KernelConfig{MeshCells: 0})
	_, err := k.ToMesh(k.Box(1, 1, 1))
	assert.Error(t, err)
}

func TestCylinder(t *testing.T) {
	k := newTestKernel(true)
	mesh, err := k.ToMesh(k.Cylinder(50, 10, 32))
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	size := mesh.BoundingBoxSize()
	assert.InDelta(t, 20, size.X, 2)
	assert.InDelta(t, 50, size.Z, 2)
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestDifference(t *testing.T) {
	k := newTestKernel(true)

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	require.NoError(t, err)

	cyl := k.Translate(k.Cylinder(120, 20, 32), 50, 50, 50)
	diffMesh, err := k.ToMesh(k.Difference(box, cyl))
	require.NoError(t, err)
	require.False(t, diffMesh.IsEmpty())

	// A box with a hole has more triangles than a plain box.
	assert.Greater(t, diffMesh.TriangleCount(), boxMesh.TriangleCount())
}

func TestUnion(t *testing.T) {
	k := newTestKernel(true)
	box1 := k.Box(50, 50, 50)
	box2 := k.Translate(k.Box(50, 50, 50), 30, 0, 0)
	mesh, err := k.ToMesh(k.Union(box1, box2))
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	size := mesh.BoundingBoxSize()
	assert.InDelta(t, 80, size.X, 3)
}

func TestIntersection(t *testing.T) {
	k := newTestKernel(true)
	box1 := k.Box(100, 100, 100)
	box2 := k.Translate(k.Box(100, 100, 100), 50, 0, 0)
	mesh, err := k.ToMesh(k.Intersection(box1, box2))
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	size := mesh.BoundingBoxSize()
	assert.InDelta(t, 50, size.X, 3)
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	min, max := translated.BoundingBox()

	const tol = 0.5
	assert.InDelta(t, 100, min.X, tol)
	assert.InDelta(t, 200, min.Y, tol)
	assert.InDelta(t, 300, min.Z, tol)
	assert.InDelta(t, 110, max.X, tol)
	assert.InDelta(t, 210, max.Y, tol)
	assert.InDelta(t, 310, max.Z, tol)
}

func TestBoundingBox(t *testing.T) {
	k := New()
	min, max := k.Box(100, 50, 25).BoundingBox()

	const tol = 0.01
	assert.InDelta(t, 0, min.X, tol)
	assert.InDelta(t, 0, min.Y, tol)
	assert.InDelta(t, 0, min.Z, tol)
	assert.InDelta(t, 100, max.X, tol)
	assert.InDelta(t, 50, max.Y, tol)
	assert.InDelta(t, 25, max.Z, tol)
}

func TestRotate(t *testing.T) {
	k := New()
	// A long box along X rotated 90 degrees around Z extends along Y instead.
	min, max := k.Rotate(k.Box(100, 10, 10), 0, 0, 90).BoundingBox()

	const tol = 1.0
	assert.InDelta(t, 10, max.X-min.X, tol)
	assert.InDelta(t, 100, max.Y-min.Y, tol)
}

func TestEulerDegrees(t *testing.T) {
	p := EulerDegrees(0, 0, 90).MulPosition(v3.Vec{X: 1})
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 1, p.Y, 1e-9)

	// The matrix drives kernel.Transform too.
	m := kernel.NewMesh(v3.Vec{X: 2}, v3.Vec{Y: 2}, v3.Vec{Z: 2})
	out := kernel.Transform(m, EulerDegrees(90, 0, 0))
	assert.InDelta(t, 2, out.Vertex(1).Z, 1e-6)
}
