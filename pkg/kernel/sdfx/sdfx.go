// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/trimesh/pkg/config"
	"github.com/chazu/trimesh/pkg/kernel"
	"github.com/chazu/trimesh/pkg/logging"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max v3.Vec) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int  // marching cubes resolution along the longest axis
	weld  bool // share identical positions between triangles
}

// New returns an SdfxKernel with the default settings.
func New() *SdfxKernel {
	return NewWithConfig(config.Default().Kernel)
}

// NewWithConfig returns an SdfxKernel tessellating at cfg.MeshCells.
func NewWithConfig(cfg config.KernelConfig) *SdfxKernel {
	return &SdfxKernel{cells: cfg.MeshCells, weld: cfg.Weld}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions and its minimum corner at
// the origin. sdf.Box3D centers the box, so it is shifted by half of each
// dimension.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder along Z centered at the origin.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), EulerDegrees(x, y, z)))
}

// EulerDegrees returns the rotation applying x, then y, then z degrees
// about the respective axes.
func EulerDegrees(x, y, z float64) sdf.M44 {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
}

// ToMesh converts a solid to an indexed triangle mesh using marching cubes
// and derives its vertex normals.
//
// Marching cubes emits triangles wound counter-clockwise seen from outside.
// The kernel's normal convention, (p1-p0) x (p1-p2), points the other way
// for that winding, so each face is added as (t0, t2, t1) to keep derived
// normals pointing out of the solid.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if k.cells <= 0 {
		return nil, fmt.Errorf("sdfx: ToMesh: invalid mesh resolution %d", k.cells)
	}
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	mesh := &kernel.Mesh{}
	shared := make(map[v3.Vec]int)
	vertex := func(p v3.Vec) int {
		if !k.weld {
			return mesh.AddVertex(p)
		}
		if i, ok := shared[p]; ok {
			return i
		}
		i := mesh.AddVertex(p)
		shared[p] = i
		return i
	}

	for _, tri := range triangles {
		i0 := vertex(tri[0])
		i1 := vertex(tri[1])
		i2 := vertex(tri[2])
		mesh.AddFace(i0, i2, i1)
	}
	mesh.UpdateNormals()

	logging.Debug("sdfx: ToMesh: %d triangles, %d vertices (cells=%d weld=%t)",
		mesh.TriangleCount(), mesh.VertexCount(), k.cells, k.weld)
	return mesh, nil
}
