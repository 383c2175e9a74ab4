// Package kernel is a triangle-mesh geometry kernel. Mesh holds positions,
// optional normals and texture coordinates, and indexed triangles; the
// package derives normals, bounding boxes and transformed copies from it.
//
// The Kernel interface abstracts a solid-modeling backend (see the sdfx
// subpackage) whose solids tessellate into Meshes.
package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max v3.Vec)
}

// Kernel is the abstract solid-modeling interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
